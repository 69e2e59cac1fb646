package server

import (
	"strconv"
	"strings"
	"time"

	"synnergy-kv/internal/resp"
)

// cmdInfo implements INFO replication per spec §4.8. master_repl_offset is
// kept fixed at 0 on the wire; the internal primary offset drives WAIT only
// (an Open Question resolved that way, see DESIGN.md).
func cmdInfo(sess *Session, args []string) resp.Reply {
	var b strings.Builder
	b.WriteString("# Replication\r\n")
	b.WriteString("role:")
	b.WriteString(sess.srv.role)
	b.WriteString("\r\n")
	b.WriteString("connected_slaves:")
	b.WriteString(strconv.Itoa(sess.srv.hub.ReplicaCount()))
	b.WriteString("\r\n")
	b.WriteString("master_repl_offset:0\r\n")
	b.WriteString("master_replid:")
	b.WriteString(sess.srv.hub.ReplID())
	b.WriteString("\r\n")
	return resp.Bulk(b.String())
}

// cmdReplConf handles both directions of REPLCONF: the replica-side
// handshake steps (listening-port, capa psync2) answered with +OK, and an
// inbound ACK from a promoted replica connection, which updates the hub's
// ack bookkeeping and produces no reply at all (a reply here would corrupt
// the replica's command-frame read loop).
func cmdReplConf(sess *Session, args []string) resp.Reply {
	if len(args) == 0 {
		return resp.Err("ERR wrong number of arguments for 'replconf' command")
	}
	switch strings.ToUpper(args[0]) {
	case "ACK":
		if len(args) < 2 {
			return resp.RawBytes(nil)
		}
		offset, err := strconv.ParseUint(args[1], 10, 64)
		if err == nil {
			sess.srv.hub.OnAck(sess.ID(), offset)
		}
		return resp.RawBytes(nil)
	case "LISTENING-PORT", "CAPA":
		return resp.Simple("OK")
	default:
		return resp.Simple("OK")
	}
}

// cmdPSync implements the primary side of PSYNC ? -1: it replies
// FULLRESYNC plus a bulk-framed snapshot blob, then promotes the
// connection to a replica sink. A full on-disk snapshot transfer format is
// out of scope (see internal/snapshot); the blob sent here is empty, which
// is sufficient since the replica applies the live command stream that
// follows from the moment it is registered.
//
// The FULLRESYNC reply is written and flushed here, directly, rather than
// returned for handleCommand to write: the sink must not be added to the
// hub until that reply is on the wire, or a write command racing in on
// another connection could get Propagate'd to the new replica socket ahead
// of its own handshake reply and desync the replica's read loop.
func cmdPSync(sess *Session, args []string) resp.Reply {
	var b strings.Builder
	b.WriteString("+FULLRESYNC ")
	b.WriteString(sess.srv.hub.ReplID())
	b.WriteString(" 0\r\n")
	b.WriteString("$0\r\n")
	sess.writeReply(resp.RawBytes([]byte(b.String())))
	sess.srv.promoteToReplica(sess)
	return resp.RawBytes(nil)
}

// cmdWait implements WAIT n timeout_ms per spec §4.8.
func cmdWait(sess *Session, args []string) resp.Reply {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	timeoutMs, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return resp.Err("ERR timeout is not an integer or out of range")
	}
	count := sess.srv.hub.Wait(n, time.Duration(timeoutMs)*time.Millisecond)
	return resp.Int(int64(count))
}
