package httpapi

import (
	"github.com/xtding233/gacha-simulator/internal/profile"
	"github.com/xtding233/gacha-simulator/internal/simulator"
)

// SimulationRequest is the JSON body accepted by every POST route.
// Unset fields fall back to the selected profile.
type SimulationRequest struct {
	Profile string  `json:"profile"`
	Seed    *uint64 `json:"seed,omitempty"`
	Runs    int     `json:"runs,omitempty"` // batch routes only

	TopTier   *string `json:"top_tier,omitempty"`
	Count     *int    `json:"count,omitempty"`
	PityLimit *int    `json:"pity_limit,omitempty"`

	StartGrade    *string `json:"start_grade,omitempty"`
	Attempts      *int    `json:"attempts,omitempty"`
	SynthesisPity *int    `json:"synthesis_pity,omitempty"`
}

func (r SimulationRequest) toRequest() simulator.Request {
	return simulator.Request{
		Profile: r.Profile,
		Seed:    r.Seed,
		Overrides: profile.Overrides{
			TopTier:       r.TopTier,
			DrawCount:     r.Count,
			PityLimit:     r.PityLimit,
			StartGrade:    r.StartGrade,
			Attempts:      r.Attempts,
			SynthesisPity: r.SynthesisPity,
		},
	}
}

func (r SimulationRequest) toBatchRequest() simulator.BatchRequest {
	return simulator.BatchRequest{Request: r.toRequest(), Runs: r.Runs}
}

type MetaResp struct {
	RequestID string `json:"request_id"`
}

type DrawResponse struct {
	simulator.DrawReport
	Meta MetaResp `json:"meta"`
}

type SynthesisResponse struct {
	simulator.SynthesisReport
	Meta MetaResp `json:"meta"`
}

type BatchResponse struct {
	simulator.BatchReport
	Meta MetaResp `json:"meta"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
