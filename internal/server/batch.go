package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/bizscan/internal/bizno"
	"github.com/joseph-ayodele/bizscan/internal/common"
	"github.com/joseph-ayodele/bizscan/internal/delivery"
	"github.com/joseph-ayodele/bizscan/internal/entity"
	"github.com/joseph-ayodele/bizscan/internal/pipeline"
)

// Batches is the part of the batch service exposed over gRPC.
type Batches interface {
	Get(ctx context.Context, id string) (entity.Snapshot, error)
	List() []entity.Snapshot
	Pause(id string) error
	Resume(ctx context.Context, id string) error
	Workbook(ctx context.Context, id string, opts pipeline.WorkbookOptions) ([]byte, entity.Snapshot, error)
}

type BatchServer struct {
	batches Batches
	checker delivery.Checker
	logger  *slog.Logger
}

func NewBatchServer(batches Batches, checker delivery.Checker, logger *slog.Logger) *BatchServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchServer{batches: batches, checker: checker, logger: logger}
}

func (s *BatchServer) GetBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := batchID(req)
	if err != nil {
		return nil, err
	}
	snap, err := s.batches.Get(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(snap)
}

func (s *BatchServer) ListBatches(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	list := s.batches.List()
	return toStruct(map[string]any{"batches": list, "count": len(list)})
}

func (s *BatchServer) PauseBatch(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := batchID(req)
	if err != nil {
		return nil, err
	}
	if err := s.batches.Pause(id); err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{"batchId": id, "paused": true})
}

func (s *BatchServer) ResumeBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := batchID(req)
	if err != nil {
		return nil, err
	}
	if err := s.batches.Resume(ctx, id); err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{"batchId": id, "resumed": true})
}

func (s *BatchServer) ExportWorkbook(ctx context.Context, req *structpb.Struct) (*wrapperspb.BytesValue, error) {
	id, err := batchID(req)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	fields := req.GetFields()
	opts := pipeline.WorkbookOptions{
		Review:  fields["review"].GetBoolValue(),
		Partial: fields["partial"].GetBoolValue(),
	}
	data, _, err := s.batches.Workbook(ctx, id, opts)
	if err != nil {
		s.logger.Warn("grpc.export.failed", "batch_id", id, "error", err)
		return nil, common.ToStatus(err)
	}
	s.logger.Info("grpc.export.ok", "batch_id", id, "bytes", len(data), "elapsed_ms", time.Since(start).Milliseconds())
	return wrapperspb.Bytes(data), nil
}

func (s *BatchServer) CheckAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw := req.GetFields()["registrationNumber"].GetStringValue()
	v := common.NewValidator().Field("registrationNumber", raw, common.Required, common.RegistrationNumber)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	digits := bizno.Digits(raw)
	avail := s.checker.CheckAll(ctx, digits)
	return toStruct(map[string]any{
		"registrationNumber": bizno.Canonical(digits),
		"availability":       avail,
		"summary":            delivery.FormatSummary(avail),
		"fullySaturated":     delivery.IsFullySaturated(avail),
	})
}

func batchID(req *structpb.Struct) (string, error) {
	id := strings.TrimSpace(req.GetFields()["batchId"].GetStringValue())
	if id == "" {
		return "", common.InvalidArgumentError("batchId is required")
	}
	return id, nil
}

// toStruct converts v through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}
