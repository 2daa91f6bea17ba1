package output

// Store persists a complete serialized result set, replacing whatever it
// held before.
type Store interface {
	WriteAll(data []byte) error
}
