package dispatch

import (
	"fmt"

	"mediasweep/internal/capability"
	"mediasweep/internal/services"
)

// Capabilities are the external collaborators a run may call. Only the ones
// an operation needs must be set.
type Capabilities struct {
	Archiver   capability.Archiver
	Transcoder capability.Transcoder
	Prober     capability.Prober
}

// check verifies that every capability op depends on is present and, when it
// implements capability.Checker, available. Compress only needs the archiver;
// artwork stripping is skipped when the transcoder is missing.
func (c Capabilities) check(op Op) error {
	var required []any
	need := func(name string, value any, present bool) error {
		if !present {
			return services.Wrap(services.ErrToolUnavailable, "dispatch", "capabilities", fmt.Sprintf("%s requires a %s", op, name), nil)
		}
		required = append(required, value)
		return nil
	}

	var err error
	switch op {
	case OpCompress, OpUncompress:
		err = need("archiver", c.Archiver, c.Archiver != nil)
	case OpConvert:
		if err = need("prober", c.Prober, c.Prober != nil); err == nil {
			err = need("transcoder", c.Transcoder, c.Transcoder != nil)
		}
	case OpScan:
		err = need("prober", c.Prober, c.Prober != nil)
	case OpTags:
		err = need("transcoder", c.Transcoder, c.Transcoder != nil)
	}
	if err != nil {
		return err
	}
	if err := capability.Check(required...); err != nil {
		return services.Wrap(services.ErrToolUnavailable, "dispatch", "capabilities", string(op), err)
	}
	return nil
}

// stripper returns the transcoder when it can strip artwork, nil otherwise.
func (c Capabilities) stripper() capability.Transcoder {
	if c.Transcoder == nil {
		return nil
	}
	if err := capability.Check(c.Transcoder); err != nil {
		return nil
	}
	return c.Transcoder
}
