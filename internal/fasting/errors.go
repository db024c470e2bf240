package fasting

import (
	"errors"
	"fmt"

	"github.com/hyperengineering/fastline/internal/types"
)

var (
	// ErrSessionAlreadyActive is returned by Start while a fast is running.
	ErrSessionAlreadyActive = errors.New("session already active")
	// ErrNoActiveSession is returned by End when no fast is running.
	ErrNoActiveSession = fmt.Errorf("%w: no active fast", types.ErrInvalidInput)
	// ErrNoCompletedSession is returned by AnnotateMood outside the completed state.
	ErrNoCompletedSession = fmt.Errorf("%w: no completed fast to annotate", types.ErrInvalidInput)
)
