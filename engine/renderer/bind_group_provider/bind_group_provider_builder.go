package bind_group_provider

import "github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/buffer"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBorrowedBuffer attaches a buffer owned by another component to a binding index.
// The provider will bind it but never release it.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that attaches the borrowed buffer
func WithBorrowedBuffer(binding int, buf buffer.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
		p.borrowed[binding] = true
	}
}

// WithOwnedBuffer attaches a buffer the provider takes ownership of.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to own
//
// Returns:
//   - BindGroupProviderOption: a function that attaches the owned buffer
func WithOwnedBuffer(binding int, buf buffer.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
	}
}
