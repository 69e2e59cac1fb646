package server

import (
	"strconv"
	"time"

	"synnergy-kv/internal/resp"
)

func cmdRPush(sess *Session, args []string) resp.Reply {
	n := sess.srv.store.RPush(args[0], args[1:]...)
	return resp.Int(int64(n))
}

func cmdLPush(sess *Session, args []string) resp.Reply {
	n := sess.srv.store.LPush(args[0], args[1:]...)
	return resp.Int(int64(n))
}

func cmdLRange(sess *Session, args []string) resp.Reply {
	start, err := strconv.Atoi(args[1])
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	end, err := strconv.Atoi(args[2])
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	elems := sess.srv.store.LRange(args[0], start, end)
	items := make([]resp.Reply, len(elems))
	for i, e := range elems {
		items[i] = resp.Bulk(e)
	}
	return resp.ArraySlice(items)
}

func cmdLLen(sess *Session, args []string) resp.Reply {
	return resp.Int(int64(sess.srv.store.LLen(args[0])))
}

func cmdLPop(sess *Session, args []string) resp.Reply {
	hasCount := len(args) >= 2
	count := 0
	if hasCount {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return resp.Err("ERR value is not an integer or out of range")
		}
		count = n
	}
	out, ok := sess.srv.store.LPop(args[0], count, hasCount)
	if !ok {
		if hasCount {
			return resp.NilArray()
		}
		return resp.NilBulk()
	}
	if !hasCount {
		if len(out) == 0 {
			return resp.NilBulk()
		}
		return resp.Bulk(out[0])
	}
	items := make([]resp.Reply, len(out))
	for i, v := range out {
		items[i] = resp.Bulk(v)
	}
	return resp.ArraySlice(items)
}

// cmdBLPop implements BLPOP key timeout_seconds, blocking on the store's
// list waitpoint until a push or the timeout elapses (0 waits forever).
func cmdBLPop(sess *Session, args []string) resp.Reply {
	key := args[0]
	secs, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return resp.Err("ERR timeout is not a float or out of range")
	}
	var timeout time.Duration
	if secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}
	v, ok := sess.srv.store.BLPop(key, timeout)
	if !ok {
		return resp.NilArray()
	}
	return resp.Array(resp.Bulk(key), resp.Bulk(v))
}
