package docx

// SetMaxPartBytes lowers the part size cap for the duration of a test.
func SetMaxPartBytes(n int64) (restore func()) {
	prev := maxPartBytes
	maxPartBytes = n
	return func() { maxPartBytes = prev }
}
