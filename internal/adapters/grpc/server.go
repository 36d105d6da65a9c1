package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/application"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
)

// ResolutionInternalService is the service-to-service surface consumed by the
// detector and scheduler services. Requests and responses travel as
// structpb.Struct until the shared proto contracts stabilize.
type ResolutionInternalService interface {
	ResolveConflict(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RollbackSwap(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BatchResolve(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type ResolutionInternalServer struct {
	service *application.Service
}

func NewResolutionInternalServer(service *application.Service) *ResolutionInternalServer {
	return &ResolutionInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc ResolutionInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: "rosterforge.resolution.v1.ResolutionInternalService",
		HandlerType: (*ResolutionInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "ResolveConflict",
				Handler:    structHandler(svc, "ResolveConflict", ResolutionInternalService.ResolveConflict),
			},
			{
				MethodName: "RollbackSwap",
				Handler:    structHandler(svc, "RollbackSwap", ResolutionInternalService.RollbackSwap),
			},
			{
				MethodName: "BatchResolve",
				Handler:    structHandler(svc, "BatchResolve", ResolutionInternalService.BatchResolve),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "rosterforge/contracts/proto/resolution/v1/resolution_internal.proto",
	}, svc)
}

func (s *ResolutionInternalServer) ResolveConflict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	conflictID, err := uuidField(req, "conflict_id")
	if err != nil {
		return nil, err
	}
	requestedBy, _ := optionalUUIDField(req, "requested_by")
	maxRisk, err := domain.ParseRiskLevel(stringField(req, "max_risk"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid max_risk")
	}

	result, err := s.service.AutoResolveIfSafe(ctx, application.AutoResolveRequest{
		ConflictID:        conflictID,
		PreferredStrategy: domain.Strategy(stringField(req, "preferred_strategy")),
		MaxRisk:           maxRisk,
		Reason:            stringField(req, "reason"),
		RequestedBy:       requestedBy,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "resolve conflict: %v", err)
	}

	fields := map[string]any{
		"success":     result.Success,
		"status":      result.Status,
		"error_code":  result.ErrorCode,
		"message":     result.Message,
		"conflict_id": result.ConflictID.String(),
		"elapsed_ms":  result.Elapsed.Milliseconds(),
	}
	if result.OptionID != nil {
		fields["option_id"] = result.OptionID.String()
	}
	if result.SwapID != nil {
		fields["swap_id"] = result.SwapID.String()
	}
	return buildStruct(fields)
}

func (s *ResolutionInternalServer) RollbackSwap(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	swapID, err := uuidField(req, "swap_id")
	if err != nil {
		return nil, err
	}

	result, err := s.service.RollbackSwap(ctx, swapID, stringField(req, "reason"))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "rollback swap: %v", err)
	}
	return buildStruct(map[string]any{
		"success":    result.Success,
		"swap_id":    result.SwapID.String(),
		"error_code": result.ErrorCode,
		"message":    result.Message,
		"elapsed_ms": result.Elapsed.Milliseconds(),
	})
}

func (s *ResolutionInternalServer) BatchResolve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	idsVal := req.GetFields()["conflict_ids"]
	if idsVal == nil {
		return nil, status.Error(codes.InvalidArgument, "missing conflict_ids")
	}
	var conflictIDs []uuid.UUID
	for _, v := range idsVal.GetListValue().GetValues() {
		id, parseErr := uuid.Parse(v.GetStringValue())
		if parseErr != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid conflict id %q", v.GetStringValue())
		}
		conflictIDs = append(conflictIDs, id)
	}
	requestedBy, _ := optionalUUIDField(req, "requested_by")
	maxRisk, err := domain.ParseRiskLevel(stringField(req, "max_risk"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid max_risk")
	}

	report := s.service.ResolveBatch(ctx, application.BatchResolveRequest{
		ConflictIDs:   conflictIDs,
		AutoApplySafe: boolField(req, "auto_apply_safe"),
		MaxRisk:       maxRisk,
		RequestedBy:   requestedBy,
	})

	return buildStruct(map[string]any{
		"total_conflicts":      report.TotalConflicts,
		"conflicts_analyzed":   report.ConflictsAnalyzed,
		"options_proposed":     report.OptionsProposed,
		"resolutions_applied":  report.ResolutionsApplied,
		"resolutions_deferred": report.ResolutionsDeferred,
		"resolutions_failed":   report.ResolutionsFailed,
		"success_rate":         report.SuccessRate,
		"affected_faculty":     report.AffectedFaculty,
		"pending_approvals":    uuidStrings(report.PendingApprovals),
		"failed_conflicts":     uuidStrings(report.FailedConflicts),
		"overall_status":       report.OverallStatus,
		"summary":              report.Summary,
		"elapsed_ms":           report.Elapsed.Milliseconds(),
	})
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func boolField(req *structpb.Struct, name string) bool {
	return req.GetFields()[name].GetBoolValue()
}

func uuidField(req *structpb.Struct, name string) (uuid.UUID, error) {
	raw := stringField(req, name)
	if raw == "" {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "missing %s", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s", name)
	}
	return id, nil
}

func optionalUUIDField(req *structpb.Struct, name string) (uuid.UUID, error) {
	raw := stringField(req, name)
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}

func uuidStrings(ids []uuid.UUID) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func buildStruct(fields map[string]any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

type structMethod func(ResolutionInternalService, context.Context, *structpb.Struct) (*structpb.Struct, error)

func structHandler(svc ResolutionInternalService, name string, method structMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/rosterforge.resolution.v1.ResolutionInternalService/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(svc, ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return method(svc, ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
