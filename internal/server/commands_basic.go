package server

import (
	"strconv"
	"strings"
	"time"

	"synnergy-kv/internal/resp"
	"synnergy-kv/internal/store"
)

func cmdPing(sess *Session, args []string) resp.Reply {
	if len(args) == 0 {
		return resp.Simple("PONG")
	}
	return resp.Bulk(args[0])
}

func cmdEcho(sess *Session, args []string) resp.Reply {
	return resp.Bulk(args[0])
}

func cmdQuit(sess *Session, args []string) resp.Reply {
	go sess.close()
	return resp.Simple("OK")
}

func cmdSet(sess *Session, args []string) resp.Reply {
	key, value := args[0], args[1]
	expiry := store.Expiry{}
	if len(args) >= 4 {
		switch strings.ToUpper(args[2]) {
		case "PX":
			ms, err := strconv.ParseInt(args[3], 10, 64)
			if err != nil {
				return resp.Err("ERR value is not an integer or out of range")
			}
			expiry.PX = time.Duration(ms) * time.Millisecond
		case "EX":
			secs, err := strconv.ParseInt(args[3], 10, 64)
			if err != nil {
				return resp.Err("ERR value is not an integer or out of range")
			}
			expiry.EX = time.Duration(secs) * time.Second
		}
	}
	sess.srv.store.Set(key, value, expiry)
	return resp.Simple("OK")
}

func cmdGet(sess *Session, args []string) resp.Reply {
	v, ok, err := sess.srv.store.Get(args[0])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NilBulk()
	}
	return resp.Bulk(v)
}

func cmdType(sess *Session, args []string) resp.Reply {
	return resp.Simple(sess.srv.store.Type(args[0]))
}

func cmdIncr(sess *Session, args []string) resp.Reply {
	n, err := sess.srv.store.Incr(args[0])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdKeys(sess *Session, args []string) resp.Reply {
	if args[0] != "*" {
		return resp.Errf("ERR unsupported KEYS pattern '%s'", args[0])
	}
	keys, err := sess.srv.store.Keys()
	if err != nil {
		return resp.Errf("ERR %s", err.Error())
	}
	items := make([]resp.Reply, len(keys))
	for i, k := range keys {
		items[i] = resp.Bulk(k)
	}
	return resp.ArraySlice(items)
}

func cmdConfig(sess *Session, args []string) resp.Reply {
	if strings.ToUpper(args[0]) != "GET" || len(args) < 2 {
		return resp.Err("ERR unsupported CONFIG subcommand")
	}
	switch strings.ToLower(args[1]) {
	case "dir":
		return resp.Array(resp.Bulk("dir"), resp.Bulk(sess.srv.cfg.Dir))
	case "dbfilename":
		return resp.Array(resp.Bulk("dbfilename"), resp.Bulk(sess.srv.cfg.DBFilename))
	default:
		return resp.Array()
	}
}

// wrongTypeOrErr maps a Store-layer error to its RESP error reply,
// special-casing WRONGTYPE so its wire text carries no "ERR " prefix.
func wrongTypeOrErr(err error) resp.Reply {
	if err == store.ErrWrongType {
		return resp.Err(err.Error())
	}
	return resp.Errf("ERR %s", err.Error())
}
