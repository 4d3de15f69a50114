package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a development logger unless production is set.
func New(production bool) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if production {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return l.Named("gallery"), nil
}
