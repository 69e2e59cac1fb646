package server

import (
	"strconv"
	"strings"
	"time"

	"synnergy-kv/internal/resp"
	"synnergy-kv/internal/store"
)

func cmdXAdd(sess *Session, args []string) resp.Reply {
	key, id := args[0], args[1]
	rest := args[2:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return resp.Err("ERR wrong number of arguments for 'xadd' command")
	}
	fields := make([]store.Field, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		fields = append(fields, store.Field{Name: rest[i], Value: rest[i+1]})
	}
	resolved, err := sess.srv.store.XAdd(key, id, fields)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Bulk(resolved)
}

func cmdXRange(sess *Session, args []string) resp.Reply {
	entries, err := sess.srv.store.XRange(args[0], args[1], args[2])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	items := make([]resp.Reply, len(entries))
	for i, e := range entries {
		items[i] = encodeStreamEntry(e)
	}
	return resp.ArraySlice(items)
}

func encodeStreamEntry(e store.StreamEntry) resp.Reply {
	fieldItems := make([]resp.Reply, 0, len(e.Fields)*2)
	for _, f := range e.Fields {
		fieldItems = append(fieldItems, resp.Bulk(f.Name), resp.Bulk(f.Value))
	}
	id := strconv.FormatUint(e.ID.Ms, 10) + "-" + strconv.FormatUint(e.ID.Seq, 10)
	return resp.Array(resp.Bulk(id), resp.ArraySlice(fieldItems))
}

// cmdXRead implements XREAD [BLOCK ms] STREAMS k1 k2 … id1 id2 ….
func cmdXRead(sess *Session, args []string) resp.Reply {
	block := false
	var blockMs int64
	i := 0
	if len(args) >= 2 && strings.EqualFold(args[0], "BLOCK") {
		ms, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return resp.Err("ERR timeout is not an integer or out of range")
		}
		block = true
		blockMs = ms
		i = 2
	}
	if i >= len(args) || !strings.EqualFold(args[i], "STREAMS") {
		return resp.Err("ERR syntax error")
	}
	i++
	rest := args[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return resp.Err("ERR Unbalanced XREAD list of streams: for each stream key an ID or '$' must be specified.")
	}
	n := len(rest) / 2
	keys := rest[:n]
	idToks := rest[n:]

	streams := make([]store.XReadStream, n)
	for j, key := range keys {
		tok := idToks[j]
		if tok == "$" {
			streams[j] = store.XReadStream{Key: key, After: sess.srv.store.ResolveLastID(key)}
			continue
		}
		id, err := store.ParseStreamID(tok)
		if err != nil {
			if block {
				streams[j] = store.XReadStream{Key: key, After: sess.srv.store.ResolveLastID(key)}
				continue
			}
			return resp.Err(err.Error())
		}
		streams[j] = store.XReadStream{Key: key, After: id}
	}

	var timeout time.Duration
	if block {
		timeout = time.Duration(blockMs) * time.Millisecond
	}
	results := sess.srv.store.XRead(streams, block, timeout)
	if len(results) == 0 {
		return resp.NilArray()
	}
	items := make([]resp.Reply, len(results))
	for j, r := range results {
		entryItems := make([]resp.Reply, len(r.Entries))
		for k, e := range r.Entries {
			entryItems[k] = encodeStreamEntry(e)
		}
		items[j] = resp.Array(resp.Bulk(r.Key), resp.ArraySlice(entryItems))
	}
	return resp.ArraySlice(items)
}
