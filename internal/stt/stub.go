package stt

import (
	"context"
	"fmt"
)

// StubEngine returns a fixed description of each input. It lets the service
// run without an inference backend.
type StubEngine struct{}

var _ Engine = StubEngine{}

func (StubEngine) Name() string {
	return "stub"
}

func (StubEngine) Transcribe(ctx context.Context, inputs []Input, languages []string, _ int) ([]string, error) {
	if err := checkInputs(inputs, languages); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]string, len(inputs))
	for i, in := range inputs {
		out[i] = fmt.Sprintf("[%s] %d bytes", languages[i], len(in.Audio))
	}
	return out, nil
}

func (StubEngine) Languages(context.Context) ([]string, error) {
	return KnownLanguages(), nil
}
