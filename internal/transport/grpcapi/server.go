// Package grpcapi exposes the simulator as the gachasim.v1.Simulator gRPC service.
package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/profile"
	"github.com/xtding233/gacha-simulator/internal/simulator"
)

// Simulator is the part of simulator.Service the gRPC service needs.
type Simulator interface {
	RunDraws(ctx context.Context, req simulator.Request) (simulator.DrawReport, error)
	RunSynthesis(ctx context.Context, req simulator.Request) (simulator.SynthesisReport, error)
}

// Service implements SimulatorServer.
type Service struct {
	svc Simulator
	log *logrus.Entry
}

var _ SimulatorServer = (*Service)(nil)

func NewService(svc Simulator, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.WithField("module", "grpcapi")
	}
	return &Service{svc: svc, log: log}
}

// NewServer returns a grpc.Server with the simulator registered and request logging installed.
func NewServer(svc Simulator, log *logrus.Entry, opts ...grpc.ServerOption) *grpc.Server {
	s := NewService(svc, log)
	opts = append(opts, grpc.ChainUnaryInterceptor(LoggingInterceptor(s.log)))
	srv := grpc.NewServer(opts...)
	RegisterSimulatorServer(srv, s)
	return srv
}

// SimulateDraws runs one draw simulation.
func (s *Service) SimulateDraws(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	rep, err := s.svc.RunDraws(ctx, req)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return encode(rep, rep.Seed)
}

// SimulateSynthesis runs one synthesis simulation.
func (s *Service) SimulateSynthesis(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	rep, err := s.svc.RunSynthesis(ctx, req)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return encode(rep, rep.Seed)
}

// request mirrors the HTTP body. Seed accepts a number or a decimal string;
// Struct numbers are doubles, so seeds above 2^53 must be sent as strings.
type request struct {
	Profile       string       `json:"profile"`
	Seed          *json.Number `json:"seed"`
	TopTier       *string      `json:"top_tier"`
	Count         *int         `json:"count"`
	PityLimit     *int         `json:"pity_limit"`
	StartGrade    *string      `json:"start_grade"`
	Attempts      *int         `json:"attempts"`
	SynthesisPity *int         `json:"synthesis_pity"`
}

func decodeRequest(in *structpb.Struct) (simulator.Request, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	data, err := json.Marshal(in.AsMap())
	if err != nil {
		return simulator.Request{}, status.Errorf(codes.InvalidArgument, "encode request: %v", err)
	}
	var r request
	if err := json.Unmarshal(data, &r); err != nil {
		return simulator.Request{}, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	out := simulator.Request{
		Profile: r.Profile,
		Overrides: profile.Overrides{
			TopTier:       r.TopTier,
			DrawCount:     r.Count,
			PityLimit:     r.PityLimit,
			StartGrade:    r.StartGrade,
			Attempts:      r.Attempts,
			SynthesisPity: r.SynthesisPity,
		},
	}
	if r.Seed != nil {
		seed, err := strconv.ParseUint(r.Seed.String(), 10, 64)
		if err != nil {
			return simulator.Request{}, status.Errorf(codes.InvalidArgument, "seed must be an unsigned integer, got %q", r.Seed.String())
		}
		out.Seed = &seed
	}
	return out, nil
}

// encode converts a report to a Struct. The seed is written as a decimal
// string because Struct numbers cannot hold every uint64.
func encode(v any, seed *uint64) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	if seed != nil {
		payload["seed"] = strconv.FormatUint(*seed, 10)
	}
	out, err := structpb.NewStruct(payload)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func (s *Service) toStatus(err error) error {
	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, profile.ErrInvalidName),
		errors.Is(err, gacha.ErrInvalidConfiguration),
		errors.Is(err, gacha.ErrMalformedTable):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.log.WithError(err).Error("internal error")
		return status.Error(codes.Internal, "internal error")
	}
}

// LoggingInterceptor logs each unary call with its method, code, and latency.
func LoggingInterceptor(log *logrus.Entry) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.WithFields(logrus.Fields{
			"method":     info.FullMethod,
			"code":       status.Code(err).String(),
			"latency_ms": time.Since(start).Milliseconds(),
		}).Info("rpc")
		return resp, err
	}
}

