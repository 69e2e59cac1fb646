package resp

import (
	"fmt"
	"strconv"
	"strings"
)

// Reply is a typed RESP reply value. Exactly one of the fields applies,
// selected by Kind.
type Kind int

const (
	KindSimple Kind = iota
	KindError
	KindInteger
	KindBulk
	KindNilBulk
	KindArray
	KindNilArray
	KindRaw
)

type Reply struct {
	Kind  Kind
	Str   string
	Int   int64
	Array []Reply
	Bytes []byte
}

// Simple builds a simple-string reply ("+OK").
func Simple(s string) Reply { return Reply{Kind: KindSimple, Str: s} }

// Err builds an error reply ("-ERR ...").
func Err(s string) Reply { return Reply{Kind: KindError, Str: s} }

// Errf builds a formatted error reply.
func Errf(format string, args ...interface{}) Reply {
	return Reply{Kind: KindError, Str: fmt.Sprintf(format, args...)}
}

// Int builds an integer reply.
func Int(n int64) Reply { return Reply{Kind: KindInteger, Int: n} }

// Bulk builds a bulk-string reply.
func Bulk(s string) Reply { return Reply{Kind: KindBulk, Str: s} }

// NilBulk builds a nil bulk-string reply ("$-1").
func NilBulk() Reply { return Reply{Kind: KindNilBulk} }

// Array builds an array reply.
func Array(items ...Reply) Reply { return Reply{Kind: KindArray, Array: items} }

// ArraySlice builds an array reply from a slice.
func ArraySlice(items []Reply) Reply { return Reply{Kind: KindArray, Array: items} }

// NilArray builds a nil array reply ("*-1").
func NilArray() Reply { return Reply{Kind: KindNilArray} }

// RawBytes builds a reply whose wire bytes are exactly b, already encoded
// by the caller. Used by PSYNC, whose FULLRESYNC line plus bulk-framed
// snapshot blob don't fit the typed reply shapes above.
func RawBytes(b []byte) Reply { return Reply{Kind: KindRaw, Bytes: b} }

// Encode serializes a Reply to its wire bytes.
func Encode(r Reply) []byte {
	var b strings.Builder
	encodeInto(&b, r)
	return []byte(b.String())
}

func encodeInto(b *strings.Builder, r Reply) {
	switch r.Kind {
	case KindSimple:
		b.WriteByte('+')
		b.WriteString(r.Str)
		b.WriteString("\r\n")
	case KindError:
		b.WriteByte('-')
		b.WriteString(r.Str)
		b.WriteString("\r\n")
	case KindInteger:
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(r.Int, 10))
		b.WriteString("\r\n")
	case KindBulk:
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(len(r.Str)))
		b.WriteString("\r\n")
		b.WriteString(r.Str)
		b.WriteString("\r\n")
	case KindNilBulk:
		b.WriteString("$-1\r\n")
	case KindNilArray:
		b.WriteString("*-1\r\n")
	case KindRaw:
		b.Write(r.Bytes)
	case KindArray:
		b.WriteByte('*')
		b.WriteString(strconv.Itoa(len(r.Array)))
		b.WriteString("\r\n")
		for _, item := range r.Array {
			encodeInto(b, item)
		}
	default:
		b.WriteString("$-1\r\n")
	}
}

// EncodeRawCommand serializes a command frame (used when the server needs
// to synthesize bytes to send to a replica, e.g. REPLCONF GETACK *) as a
// RESP array of bulk strings.
func EncodeRawCommand(parts ...string) []byte {
	items := make([]Reply, len(parts))
	for i, p := range parts {
		items[i] = Bulk(p)
	}
	return Encode(Array(items...))
}
