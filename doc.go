/*
Package ncmgr is a set of NETCONF manager (client) libraries.

They turn the messages of a NETCONF session into dispatched protocol
events, and outgoing <rpc> requests into tracked operations completed
by the matching <rpc-reply>.

The xmlutil package reads each message as a stream of typed nodes and
can skip or copy any subtree. The top package routes the first element
of a message to the handler registered for its owning module. The mgr
package registers the <hello> and <rpc-reply> handlers, allocates
message-ids, sends requests, matches replies to them and expires those
left unanswered.

Sessions consume a transport delivering one io.Reader or io.WriteCloser
per message. The framing package provides one over any byte stream
using RFC6242 message framing; the secure transport itself is not part
of these libraries. See the mgr package for a usage overview.
*/
package ncmgr
