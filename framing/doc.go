/*
Package framing provides a message-oriented session.Transport over a
byte stream, using RFC6242 NETCONF message framing.

A Transport starts in end-of-message mode, where each message is
terminated by "]]>]]>". Once both peers have advertised the :base:1.1
capability the session switches to chunked framing by calling
SetChunkedFraming, normally done by the <hello> handler.

Each message is read whole; a message larger than the configured
maximum size fails the read.
*/
package framing
