/*
Package session binds a manager to one NETCONF server session.

A Session is created with New, given a Transport which delivers whole
messages: every MsgReader call returns the next inbound message and
every MsgWriter call a writer for one outbound message. The Session
keeps the local session number used in logs, the session type, the
status and the state learnt from the server's <hello>.

Session status

A new Session is in StatusInit. SendHello writes the manager <hello>
and moves it to StatusHelloWait. Processing the server <hello> (see
package mgr) moves it to StatusIdle, after which each inbound message
is handled in StatusInMsg. Any unrecoverable transport or protocol
failure sets StatusShutdownReq; the owner then tears the session down
and calls Close.
*/
package session
