package server

import (
	"strings"

	"synnergy-kv/internal/resp"
)

func cmdMulti(sess *Session, args []string) resp.Reply {
	sess.mu.Lock()
	sess.tx = &transaction{}
	sess.mu.Unlock()
	return resp.Simple("OK")
}

// cmdExec runs the session's queued commands through dispatch in order,
// collecting one reply per queued command. Queued writes still propagate
// to replicas individually: cmdExec calls hub.Propagate for each queued
// write command itself, using the same write-command list handleCommand
// applies to non-transactional writes (EXEC itself is never propagated).
func cmdExec(sess *Session, args []string) resp.Reply {
	sess.mu.Lock()
	tx := sess.tx
	sess.tx = nil
	sess.mu.Unlock()

	if tx == nil {
		return resp.Err("ERR EXEC without MULTI")
	}

	items := make([]resp.Reply, len(tx.queued))
	for i, cmd := range tx.queued {
		items[i] = dispatch(sess, cmd)
		if sess.srv.role == "master" && isWriteCommand(strings.ToUpper(cmd.Name)) {
			sess.srv.hub.Propagate(cmd.Raw)
		}
	}
	return resp.ArraySlice(items)
}

func cmdDiscard(sess *Session, args []string) resp.Reply {
	sess.mu.Lock()
	tx := sess.tx
	sess.tx = nil
	sess.mu.Unlock()

	if tx == nil {
		return resp.Err("ERR DISCARD without MULTI")
	}
	return resp.Simple("OK")
}
