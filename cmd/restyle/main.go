// Command restyle rebuilds a .docx document with the styling of a reference
// document.
//
// Usage:
//
//	restyle --reference ref.docx --target draft.docx --output out.docx
//	restyle profile ref.docx --format markdown
//	restyle serve --addr 127.0.0.1:8501
package main

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/restyle/internal/classify"
	"github.com/hyperifyio/restyle/internal/docx"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

// exitCode maps oracle failures and unreadable documents to 2 and every
// other failure to 1.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, classify.ErrOracleCall), errors.Is(err, docx.ErrMalformedDocument):
		return 2
	default:
		return 1
	}
}
