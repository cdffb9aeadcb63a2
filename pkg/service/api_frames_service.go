package service

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"lazyframe/pkg/engine"
	"lazyframe/pkg/engine/frame"
)

type LoadFrameRequest struct {
	Table string `json:"table"`
	Name  string `json:"name,omitempty"`
}

type KeepColumnsRequest struct {
	Columns string `json:"columns"`
	Into    string `json:"into"`
}

type PipelineRequest struct {
	Steps []string `json:"steps"`
	Into  string   `json:"into"`
}

type SaveFrameRequest struct {
	Table string `json:"table"`
}

type ColumnIndex struct {
	Index int    `json:"index"`
	Type  string `json:"type,omitempty"`
}

// FramesAPIService exposes the frames bound in a session.
type FramesAPIService struct {
	Session         *engine.Session
	PreviewRowLimit uint64
}

func NewFramesAPIService(s *engine.Session, previewRowLimit uint64) *FramesAPIService {
	return &FramesAPIService{Session: s, PreviewRowLimit: previewRowLimit}
}

// GetFrames - List bound frame names
func (s *FramesAPIService) GetFrames(ctx context.Context) (ImplResponse, error) {
	return Response(http.StatusOK, s.Session.List()), nil
}

// LoadFrame - Bind a materialized frame over a table
func (s *FramesAPIService) LoadFrame(ctx context.Context, req LoadFrameRequest) (ImplResponse, error) {
	if req.Table == "" {
		return errorResponse(NewVErr("table must be set", "table")), nil
	}
	name, f, err := s.Session.Load(req.Table, req.Name)
	if err != nil {
		return errorResponse(err), nil
	}
	return Response(http.StatusOK, engine.DescribeFrame(name, f)), nil
}

// GetFrame - Describe a frame
func (s *FramesAPIService) GetFrame(ctx context.Context, name string) (ImplResponse, error) {
	info, err := s.Session.Describe(name)
	if err != nil {
		return errorResponse(err), nil
	}
	return Response(http.StatusOK, info), nil
}

// DeleteFrame - Drop a binding
func (s *FramesAPIService) DeleteFrame(ctx context.Context, name string) (ImplResponse, error) {
	if err := s.Session.Drop(name); err != nil {
		return errorResponse(err), nil
	}
	return Response(http.StatusOK, nil), nil
}

// KeepColumns - Bind a selection of the frame's columns
func (s *FramesAPIService) KeepColumns(ctx context.Context, name string, req KeepColumnsRequest) (ImplResponse, error) {
	vErr := &ValidationError{}
	if req.Into == "" {
		vErr.Add("into must be set", "into")
	}
	indices, err := frame.ParseSliceList(req.Columns)
	if err != nil {
		vErr.Add(err.Error(), "columns")
	}
	if vErr.HasProblems() {
		return errorResponse(vErr), nil
	}

	f, err := s.Session.Keep(name, indices, req.Into)
	if err != nil {
		return errorResponse(err), nil
	}
	return Response(http.StatusOK, engine.DescribeFrame(req.Into, f)), nil
}

// Pipeline - Apply several selections and bind the final result
func (s *FramesAPIService) Pipeline(ctx context.Context, name string, req PipelineRequest) (ImplResponse, error) {
	vErr := &ValidationError{}
	if req.Into == "" {
		vErr.Add("into must be set", "into")
	}
	if len(req.Steps) == 0 {
		vErr.Add("no columns specified", "steps")
	}
	steps := make([]*frame.SliceList, 0, len(req.Steps))
	for _, step := range req.Steps {
		indices, err := frame.ParseSliceList(step)
		if err != nil {
			vErr.Add(err.Error(), step)
			continue
		}
		steps = append(steps, indices)
	}
	if vErr.HasProblems() {
		return errorResponse(vErr), nil
	}

	f, err := s.Session.Pipeline(name, steps, req.Into)
	if err != nil {
		return errorResponse(err), nil
	}
	return Response(http.StatusOK, engine.DescribeFrame(req.Into, f)), nil
}

// FindColumn - Index of a column by name, -1 if absent
func (s *FramesAPIService) FindColumn(ctx context.Context, name, column string) (ImplResponse, error) {
	if column == "" {
		return errorResponse(NewVErr("name must be set", "name")), nil
	}
	idx, err := s.Session.Find(name, column)
	if err != nil {
		return errorResponse(err), nil
	}
	return Response(http.StatusOK, ColumnIndex{Index: idx}), nil
}

// GetColumnType - Type of the column at index
func (s *FramesAPIService) GetColumnType(ctx context.Context, name string, index int) (ImplResponse, error) {
	f, err := s.Session.Get(name)
	if err != nil {
		return errorResponse(err), nil
	}
	if index < 0 || index >= f.NumCols() {
		return errorResponse(errors.Wrapf(frame.ErrIndexOutOfRange, "column index %d is out of bounds [0, %d)", index, f.NumCols())), nil
	}
	return Response(http.StatusOK, ColumnIndex{Index: index, Type: f.Type(index).String()}), nil
}

// SaveFrame - Store a materialized frame as a table file
func (s *FramesAPIService) SaveFrame(ctx context.Context, name string, req SaveFrameRequest) (ImplResponse, error) {
	if req.Table == "" {
		return errorResponse(NewVErr("table must be set", "table")), nil
	}
	path, err := s.Session.Save(name, req.Table)
	if err != nil {
		return errorResponse(err), nil
	}
	return Response(http.StatusOK, map[string]string{"path": path}), nil
}

// PreviewFrame - First rows of a materialized frame
func (s *FramesAPIService) PreviewFrame(ctx context.Context, name string, rowLimit uint64) (ImplResponse, error) {
	if rowLimit == 0 || (s.PreviewRowLimit > 0 && rowLimit > s.PreviewRowLimit) {
		rowLimit = s.PreviewRowLimit
	}
	res, err := s.Session.Preview(name, rowLimit)
	if err != nil {
		return errorResponse(err), nil
	}
	return Response(http.StatusOK, res), nil
}
