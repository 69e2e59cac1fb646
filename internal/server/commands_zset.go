package server

import (
	"strconv"

	"synnergy-kv/internal/resp"
)

func cmdZAdd(sess *Session, args []string) resp.Reply {
	rest := args[1:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return resp.Err("ERR wrong number of arguments for 'zadd' command")
	}
	pairs := make(map[string]float64, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		score, err := strconv.ParseFloat(rest[i], 64)
		if err != nil {
			return resp.Err("ERR value is not a valid float")
		}
		member := rest[i+1]
		pairs[member] = score
	}
	added, err := sess.srv.store.ZAdd(args[0], pairs)
	if err != nil {
		return resp.Errf("ERR %s", err.Error())
	}
	return resp.Int(int64(added))
}

func cmdZRank(sess *Session, args []string) resp.Reply {
	rank, ok := sess.srv.store.ZRank(args[0], args[1])
	if !ok {
		return resp.NilBulk()
	}
	return resp.Int(int64(rank))
}

func cmdZRange(sess *Session, args []string) resp.Reply {
	start, err := strconv.Atoi(args[1])
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	end, err := strconv.Atoi(args[2])
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	members := sess.srv.store.ZRange(args[0], start, end)
	items := make([]resp.Reply, len(members))
	for i, m := range members {
		items[i] = resp.Bulk(m)
	}
	return resp.ArraySlice(items)
}

func cmdZCard(sess *Session, args []string) resp.Reply {
	return resp.Int(int64(sess.srv.store.ZCard(args[0])))
}

func cmdZScore(sess *Session, args []string) resp.Reply {
	score, ok := sess.srv.store.ZScore(args[0], args[1])
	if !ok {
		return resp.NilBulk()
	}
	return resp.Bulk(score)
}

func cmdZRem(sess *Session, args []string) resp.Reply {
	if sess.srv.store.ZRem(args[0], args[1]) {
		return resp.Int(1)
	}
	return resp.Int(0)
}
