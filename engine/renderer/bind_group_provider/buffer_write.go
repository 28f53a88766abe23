package bind_group_provider

// BufferWrite is one queued write into the buffer bound at Binding on Provider.
// Renderer.WriteBuffers skips writes whose binding has no buffer yet.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64 // byte offset into the target buffer
	Data     []byte
}
