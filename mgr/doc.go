/*
Package mgr is the manager side of a NETCONF session: the message
dispatcher and the RPC request/reply manager.

A Manager is created with New and its handlers registered with Init.
For each server connection, NewSession binds a transport and
StartSession sends the manager <hello>. The embedding event loop then
calls DispatchMsg whenever a message is available; the server <hello>
makes the session idle.

	m := mgr.New(mgr.WithConfig(cfg))
	if err := m.Init(); err != nil {
		return err
	}
	ms := m.NewSession(framing.New(sshChannel), session.Config{})
	if err := m.StartSession(ms); err != nil {
		return err
	}
	for ms.State.Status != session.StatusShutdownReq {
		m.DispatchMsg(ms)
		m.TimeoutRequestQueue(ms.Queue())
	}
	m.CloseSession(ms)

Requests

NewRequest assigns the session's next message-id. SendRequest writes
the request and queues it; the ReplyHandler is called once, from
DispatchMsg, when the reply with the same message-id arrives. A reply
whose request already timed out, or which matches nothing, is dropped.
Timeouts are only enforced when TimeoutRequestQueue is called.
*/
package mgr
