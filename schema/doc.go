// Copyright 2018 Andrew Fort

// Package schema provides the schema objects the manager uses to type
// check replies.
//
// An Object describes an element by its XML name and occurrence
// constraints, along with the child elements it may contain. An RPC
// pairs the name of a protocol operation with the Object describing the
// contents of its successful reply. RPCs are held in a Set, keyed by
// operation name and namespace; a new Set is populated with the
// RFC6241 base operations.
//
// Reply validation
//
// ValidateReply checks a parsed <rpc-reply> against the RPC that was
// requested:
//
//	<rpc-reply> must be in the NETCONF base namespace
//	<ok/> may not be combined with data or <rpc-error> elements
//	<rpc-error> elements are decoded and returned as ncerr.Errors
//	data elements must be declared by the RPC output, unless it is open
//	declared output children must meet their min/max occurrences
//
// An RPC without output accepts only <ok/> or <rpc-error> replies.
// Generic returns an RPC with open output, used for replies which can
// not be correlated with a request.
package schema
