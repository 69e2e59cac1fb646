package server

import (
	"strings"

	"synnergy-kv/internal/auth"
	"synnergy-kv/internal/resp"
)

// cmdACL implements ACL SETUSER|GETUSER|WHOAMI per spec §4.9.
func cmdACL(sess *Session, args []string) resp.Reply {
	sub := strings.ToUpper(args[0])
	switch sub {
	case "SETUSER":
		if len(args) < 3 {
			return resp.Err("ERR wrong number of arguments for 'acl|setuser' command")
		}
		user, password := args[1], args[2]
		sess.srv.store.Auth().SetUser(user, password)
		sess.mu.Lock()
		sess.authenticated = true
		sess.currentUser = user
		sess.mu.Unlock()
		return resp.Simple("OK")

	case "WHOAMI":
		sess.mu.Lock()
		authenticated, user := sess.authenticated, sess.currentUser
		sess.mu.Unlock()
		if !authenticated {
			return resp.Err("NOAUTH Authentication required.")
		}
		return resp.Bulk(user)

	case "GETUSER":
		user := auth.DefaultUser
		if len(args) >= 2 {
			user = args[1]
		}
		if !sess.srv.store.Auth().Exists(user) {
			return resp.NilArray()
		}
		hashes := sess.srv.store.Auth().HashesHex(user)
		passwordItems := make([]resp.Reply, len(hashes))
		for i, h := range hashes {
			passwordItems[i] = resp.Bulk(h)
		}
		flags := []resp.Reply{resp.Bulk("on")}
		if len(hashes) == 0 {
			flags = append(flags, resp.Bulk("nopass"))
		}
		return resp.Array(
			resp.ArraySlice(flags),
			resp.Array(),
			resp.Bulk("passwords"),
			resp.ArraySlice(passwordItems),
		)

	default:
		return resp.Errf("ERR Unknown ACL subcommand or wrong number of arguments for '%s'", strings.ToLower(sub))
	}
}

// cmdAuth implements AUTH user password per spec §4.9.
func cmdAuth(sess *Session, args []string) resp.Reply {
	user, password := args[0], args[1]
	if !sess.srv.store.Auth().Exists(user) {
		return resp.Err("ERR username doesn't exists")
	}
	if !sess.srv.store.Auth().Verify(user, password) {
		return resp.Err("WRONGPASS invalid username-password pair or user is disabled.")
	}
	sess.mu.Lock()
	sess.authenticated = true
	sess.currentUser = user
	sess.mu.Unlock()
	return resp.Simple("OK")
}
