package grpcapi

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/gacha-simulator/internal/profile"
	"github.com/xtding233/gacha-simulator/internal/simulator"
)

const defaultYAML = `
table:
  - {grade: S, label: Crown, weight: 5}
  - {grade: A, label: Shield, weight: 95}
draw:
  count: 100
  pity_limit: 20
synthesis:
  rates: {A: 18}
  pity: 3
  count: 10
  start_grade: A
`

func dial(t *testing.T, svc Simulator) (*Client, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	srv := NewServer(svc, logrus.NewEntry(logger))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn), hook
}

func newSimulator(t *testing.T) *simulator.Service {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles", "default.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(defaultYAML), 0o644))
	logger, _ := logtest.NewNullLogger()
	log := logrus.NewEntry(logger)
	return simulator.NewService(profile.NewLoader(dir, log), simulator.Options{Logger: log})
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestSimulateDraws(t *testing.T) {
	client, hook := dial(t, newSimulator(t))
	ctx := context.Background()
	in := mustStruct(t, map[string]any{"seed": 11, "count": 25})

	a, err := client.SimulateDraws(ctx, in)
	require.NoError(t, err)
	b, err := client.SimulateDraws(ctx, in)
	require.NoError(t, err)

	got := a.AsMap()
	assert.Equal(t, "default", got["profile"])
	assert.Len(t, got["outcomes"], 25)
	assert.Equal(t, got["outcomes"], b.AsMap()["outcomes"], "same seed, same outcomes")
	summary := got["summary"].(map[string]any)
	assert.Equal(t, float64(25), summary["draws"])

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, MethodSimulateDraws, entry.Data["method"])
	assert.Equal(t, codes.OK.String(), entry.Data["code"])
}

func TestSimulateDraws_SeedAsString(t *testing.T) {
	client, _ := dial(t, newSimulator(t))
	out, err := client.SimulateDraws(context.Background(), mustStruct(t, map[string]any{"seed": "18446744073709551615", "count": 5}))
	require.NoError(t, err)
	assert.Len(t, out.AsMap()["outcomes"], 5)
}

func TestSimulateSynthesis(t *testing.T) {
	client, _ := dial(t, newSimulator(t))
	out, err := client.SimulateSynthesis(context.Background(), mustStruct(t, map[string]any{"start_grade": "SR", "attempts": 8}))
	require.NoError(t, err)

	got := out.AsMap()
	assert.Equal(t, true, got["degraded_pity"])
	assert.Equal(t, "SR", got["target"])
	summary := got["summary"].(map[string]any)
	// pity 3: attempts 4 and 8 are forced
	assert.Equal(t, float64(2), summary["pity_successes"])
}

func TestStatusCodes(t *testing.T) {
	client, _ := dial(t, newSimulator(t))
	tests := []struct {
		name string
		in   map[string]any
		want codes.Code
	}{
		{"unknown profile", map[string]any{"profile": "nope"}, codes.NotFound},
		{"invalid name", map[string]any{"profile": "../x"}, codes.InvalidArgument},
		{"zero count", map[string]any{"count": 0}, codes.InvalidArgument},
		{"fractional seed", map[string]any{"seed": 1.5}, codes.InvalidArgument},
		{"negative seed", map[string]any{"seed": -1}, codes.InvalidArgument},
		{"wrong type", map[string]any{"count": "ten"}, codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.SimulateDraws(context.Background(), mustStruct(t, tt.in))
			assert.Equal(t, tt.want, status.Code(err), err)
		})
	}
}

func TestSimulate_SeedRoundTripsExactly(t *testing.T) {
	client, _ := dial(t, newSimulator(t))
	ctx := context.Background()
	const seed = "18446744073709551557"

	out, err := client.SimulateDraws(ctx, mustStruct(t, map[string]any{"seed": seed, "count": 3}))
	require.NoError(t, err)
	assert.Equal(t, seed, out.AsMap()["seed"])

	out, err = client.SimulateSynthesis(ctx, mustStruct(t, map[string]any{"seed": seed, "attempts": 3}))
	require.NoError(t, err)
	assert.Equal(t, seed, out.AsMap()["seed"])

	// the echoed seed replays the run
	replay, err := client.SimulateDraws(ctx, mustStruct(t, map[string]any{"seed": out.AsMap()["seed"], "count": 3}))
	require.NoError(t, err)
	first, err := client.SimulateDraws(ctx, mustStruct(t, map[string]any{"seed": seed, "count": 3}))
	require.NoError(t, err)
	assert.Equal(t, first.AsMap()["outcomes"], replay.AsMap()["outcomes"])

	out, err = client.SimulateDraws(ctx, mustStruct(t, map[string]any{"count": 3}))
	require.NoError(t, err)
	assert.NotContains(t, out.AsMap(), "seed", "unseeded runs carry no seed")
}

type brokenSimulator struct{}

func (brokenSimulator) RunDraws(context.Context, simulator.Request) (simulator.DrawReport, error) {
	return simulator.DrawReport{}, errors.New("boom")
}

func (brokenSimulator) RunSynthesis(context.Context, simulator.Request) (simulator.SynthesisReport, error) {
	return simulator.SynthesisReport{}, context.DeadlineExceeded
}

func TestInternalErrors(t *testing.T) {
	client, _ := dial(t, brokenSimulator{})

	_, err := client.SimulateDraws(context.Background(), &structpb.Struct{})
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())

	_, err = client.SimulateSynthesis(context.Background(), &structpb.Struct{})
	assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
}
