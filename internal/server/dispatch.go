package server

import (
	"strings"

	"synnergy-kv/internal/resp"
)

// commandSpec is one row of the dispatch table: name -> (min arity,
// handler), built once at startup per spec §9 ("table of name ->
// (min_arity, handler) built at startup").
type commandSpec struct {
	minArity int
	handler  func(sess *Session, args []string) resp.Reply
}

var commandTable map[string]commandSpec

func init() {
	commandTable = map[string]commandSpec{
		"PING":   {0, cmdPing},
		"ECHO":   {1, cmdEcho},
		"QUIT":   {0, cmdQuit},
		"SET":    {2, cmdSet},
		"GET":    {1, cmdGet},
		"TYPE":   {1, cmdType},
		"INCR":   {1, cmdIncr},
		"KEYS":   {1, cmdKeys},
		"CONFIG": {1, cmdConfig},

		"RPUSH":  {2, cmdRPush},
		"LPUSH":  {2, cmdLPush},
		"LRANGE": {3, cmdLRange},
		"LLEN":   {1, cmdLLen},
		"LPOP":   {1, cmdLPop},
		"BLPOP":  {2, cmdBLPop},

		"XADD":   {3, cmdXAdd},
		"XRANGE": {3, cmdXRange},
		"XREAD":  {2, cmdXRead},

		"MULTI":   {0, cmdMulti},
		"EXEC":    {0, cmdExec},
		"DISCARD": {0, cmdDiscard},

		"SUBSCRIBE":   {1, cmdSubscribe},
		"UNSUBSCRIBE": {1, cmdUnsubscribe},
		"PUBLISH":     {2, cmdPublish},

		"ZADD":   {3, cmdZAdd},
		"ZRANK":  {2, cmdZRank},
		"ZRANGE": {3, cmdZRange},
		"ZCARD":  {1, cmdZCard},
		"ZSCORE": {2, cmdZScore},
		"ZREM":   {2, cmdZRem},

		"GEOADD":    {4, cmdGeoAdd},
		"GEOPOS":    {2, cmdGeoPos},
		"GEODIST":   {3, cmdGeoDist},
		"GEOSEARCH": {6, cmdGeoSearch},

		"ACL":  {1, cmdACL},
		"AUTH": {2, cmdAuth},

		"INFO":     {0, cmdInfo},
		"REPLCONF": {0, cmdReplConf},
		"PSYNC":    {2, cmdPSync},
		"WAIT":     {2, cmdWait},
	}
}

// dispatch looks up and runs the handler for cmd, enforcing arity. EXEC
// runs queued commands through this same function, one at a time.
func dispatch(sess *Session, cmd *resp.Command) resp.Reply {
	name := strings.ToUpper(cmd.Name)
	spec, ok := commandTable[name]
	if !ok {
		return resp.Err("ERR Not a valid command")
	}
	if len(cmd.Args) < spec.minArity {
		return resp.Errf("ERR wrong number of arguments for '%s' command", strings.ToLower(name))
	}
	return spec.handler(sess, cmd.Args)
}
