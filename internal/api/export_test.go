package api

// DecodeNumber decodes b the way request bodies decode integer fields.
func DecodeNumber(b []byte) (int64, error) {
	var n number
	err := n.UnmarshalJSON(b)

	return int64(n), err
}
