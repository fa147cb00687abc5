package tui

// SetClipboard replaces the clipboard writer until the returned func runs.
func SetClipboard(fn func(string) error) (restore func()) {
	prev := clipboardWriteAll
	clipboardWriteAll = fn
	return func() { clipboardWriteAll = prev }
}
