package quotedprintable

// Stats counts the traffic through an [Encoder] or [Decoder].
//
// BytesConsumed is read from the caller (encoder) or the source (decoder),
// BytesProduced is written to the sink (encoder) or handed to the caller
// (decoder).
type Stats struct {
	BytesConsumed int64
	BytesProduced int64
	SoftBreaks    int64 // "=\r\n" sequences
	HardBreaks    int64 // "\r\n" sequences
}
