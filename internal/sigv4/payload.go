package sigv4

const (
	UnsignedPayloadHash = "UNSIGNED-PAYLOAD"

	// EmptyPayloadHash is the SHA-256 of an empty body.
	EmptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

type payloadKind int

const (
	payloadEmpty payloadKind = iota
	payloadBytes
	payloadUnsigned
)

// Payload is the body a request is signed for. The zero value is an empty
// body.
type Payload struct {
	kind payloadKind
	data []byte
}

var (
	EmptyPayload    = Payload{kind: payloadEmpty}
	UnsignedPayload = Payload{kind: payloadUnsigned}
)

func BytesPayload(data []byte) Payload {
	return Payload{kind: payloadBytes, data: data}
}

func (p Payload) Unsigned() bool {
	return p.kind == payloadUnsigned
}

func (p Payload) Bytes() []byte {
	if p.kind != payloadBytes {
		return nil
	}
	return p.data
}

// Hash returns the value of the payload hash line of the canonical request.
func (p Payload) Hash() string {
	switch p.kind {
	case payloadBytes:
		return hashSHA256(p.data)
	case payloadUnsigned:
		return UnsignedPayloadHash
	default:
		return EmptyPayloadHash
	}
}
