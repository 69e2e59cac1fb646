package server

import (
	"synnergy-kv/internal/resp"
)

func cmdSubscribe(sess *Session, args []string) resp.Reply {
	var items []resp.Reply
	for _, ch := range args {
		sess.srv.store.Subscribe(sess, ch)
		sess.mu.Lock()
		sess.subs[ch] = struct{}{}
		count := len(sess.subs)
		sess.mu.Unlock()
		items = append(items, resp.Array(resp.Bulk("subscribe"), resp.Bulk(ch), resp.Int(int64(count))))
	}
	// One reply per command: a single channel gets its bare
	// ["subscribe", channel, count] triple; several channels get one array
	// holding a triple per channel.
	if len(items) == 1 {
		return items[0]
	}
	return resp.ArraySlice(items)
}

func cmdUnsubscribe(sess *Session, args []string) resp.Reply {
	var items []resp.Reply
	for _, ch := range args {
		sess.srv.store.Unsubscribe(sess, ch)
		sess.mu.Lock()
		delete(sess.subs, ch)
		count := len(sess.subs)
		sess.mu.Unlock()
		items = append(items, resp.Array(resp.Bulk("unsubscribe"), resp.Bulk(ch), resp.Int(int64(count))))
	}
	if len(items) == 1 {
		return items[0]
	}
	return resp.ArraySlice(items)
}

func cmdPublish(sess *Session, args []string) resp.Reply {
	channel, payload := args[0], args[1]
	n := sess.srv.store.Publish(channel, payload, func(subscriberID string, err error) {
		sess.srv.logger.WithField("subscriber", subscriberID).WithError(err).Warn("publish delivery failed")
	})
	return resp.Int(int64(n))
}
