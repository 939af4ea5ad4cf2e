// Package grpc serves and calls the operator API used to submit and inspect
// rules without going through private messages.
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"lemmy-automod/models"
	"lemmy-automod/submission"
	"lemmy-automod/utils"

	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// APIKeyHeader is the metadata key carrying the operator API key.
const APIKeyHeader = "x-api-key"

// Submitter runs rule submissions.
type Submitter interface {
	Submit(ctx context.Context, submitter models.Person, document []byte) submission.Report
}

// RuleLister reads the stored rules of a community.
type RuleLister interface {
	GetCommunity(ctx context.Context, name string, platformID int64) (int64, bool, error)
	ListRules(ctx context.Context, communityID int64) (models.RuleSet, error)
}

// Service implements AutomodServer on top of the submission workflow and
// the rule store.
type Service struct {
	workflow Submitter
	rules    RuleLister
	platform models.Platform
}

var _ AutomodServer = (*Service)(nil)

// NewService returns the operator API service.
func NewService(workflow Submitter, rules RuleLister, platform models.Platform) *Service {
	return &Service{workflow: workflow, rules: rules, platform: platform}
}

func field(req *structpb.Struct, name string) string {
	if v, ok := req.GetFields()[name]; ok {
		return v.GetStringValue()
	}
	return ""
}

// SubmitRules submits a rule document on behalf of a platform user. The
// same gates apply as for a private message from that user.
func (s *Service) SubmitRules(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, document := field(req, "submitter"), field(req, "document")
	if name == "" || document == "" {
		return nil, status.Error(codes.InvalidArgument, "submitter and document are required")
	}

	submitter, err := s.platform.ResolvePerson(ctx, name)
	if errors.Is(err, models.ErrNotFound) {
		return nil, status.Errorf(codes.NotFound, "unknown user %q", name)
	}
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "resolve submitter: %v", err)
	}

	report := s.workflow.Submit(ctx, submitter, []byte(document))

	items := make([]any, 0, len(report.Results))
	for _, res := range report.Results {
		items = append(items, map[string]any{
			"index":     res.Index,
			"kind":      string(res.Kind),
			"community": res.Community,
			"ok":        res.OK(),
			"reason":    res.Reason(),
		})
	}
	return structpb.NewStruct(map[string]any{
		"id":      report.ID.String(),
		"outcome": report.Outcome().String(),
		"summary": report.String(),
		"items":   items,
	})
}

// ListRules returns every stored rule of a community.
func (s *Service) ListRules(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := field(req, "community")
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "community is required")
	}

	platformID, ok, err := s.platform.ResolveCommunityID(ctx, name)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "resolve community: %v", err)
	}
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown community %q", name)
	}

	var rs models.RuleSet
	cid, ok, err := s.rules.GetCommunity(ctx, name, platformID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "look up community: %v", err)
	}
	if ok {
		if rs, err = s.rules.ListRules(ctx, cid); err != nil {
			return nil, status.Errorf(codes.Internal, "list rules: %v", err)
		}
	}
	return toStruct(rs)
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode: %v", err)
	}
	return structpb.NewStruct(m)
}

// AuthInterceptor rejects calls that do not carry a valid API key. With no
// keys configured every call is rejected.
func AuthInterceptor(auth *utils.Auth) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		keys := md.Get(APIKeyHeader)
		if len(keys) == 0 || !auth.IsValidKey(keys[0]) {
			utils.Warn("gRPC", "Auth", fmt.Sprintf("rejected call to %s", info.FullMethod))
			return nil, status.Error(codes.Unauthenticated, "invalid API key")
		}
		return handler(ctx, req)
	}
}

// Server is the operator API listener.
type Server struct {
	srv *grpc.Server
	lis net.Listener
}

// NewServer builds a gRPC server for svc, guarded by auth.
func NewServer(svc AutomodServer, auth *utils.Auth) *grpc.Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(AuthInterceptor(auth)))
	RegisterAutomodServer(s, svc)
	return s
}

// ErrNoAPIKey is returned by Listen when auth has no keys configured.
var ErrNoAPIKey = errors.New("operator API requires at least one API key")

// Listen starts serving svc on addr in the background. It refuses to start
// without an API key.
func Listen(addr string, svc AutomodServer, auth *utils.Auth) (*Server, error) {
	if !auth.Enabled() {
		return nil, ErrNoAPIKey
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	s := &Server{srv: NewServer(svc, auth), lis: lis}
	go func() {
		if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			utils.Error("gRPC", "Serve", err.Error())
		}
	}()
	utils.Info("gRPC", "Listen", "operator API listening on "+lis.Addr().String())
	return s, nil
}

// Addr returns the listening address.
func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}

// Stop drains in-flight calls and stops the server.
func (s *Server) Stop() {
	s.srv.GracefulStop()
}
