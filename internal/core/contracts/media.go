package contracts

import (
	"context"

	"ghostsignal/internal/core/domain"
)

// MediaCapture is the transport/UI side of a call: camera and microphone
// acquisition. The call controller only decides when capture begins and
// ends; Release must be safe to call regardless of whether Acquire ran.
type MediaCapture interface {
	Acquire(ctx context.Context, kind domain.CallType) error
	Release()
}
