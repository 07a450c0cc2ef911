package stt

//go:generate mockgen -destination=sttmock/mock_engine.go -package=sttmock omniasr/internal/stt Engine

import "context"

// Input is one audio file submitted to an engine. Name carries the
// extension engines use to pick a decoder.
type Input struct {
	Name  string
	Audio []byte
}

// Engine defines the interface for speech-to-text engines
type Engine interface {
	// Transcribe returns one text per input, in input order. languages must
	// have the same length as inputs. batchSize bounds how many inputs the
	// engine works on at once.
	Transcribe(ctx context.Context, inputs []Input, languages []string, batchSize int) ([]string, error)

	// Languages lists the language codes the engine accepts.
	Languages(ctx context.Context) ([]string, error)

	// Name returns the name of the engine (e.g., "remote", "openai")
	Name() string
}
