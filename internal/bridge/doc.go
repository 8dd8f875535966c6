// Package bridge provides the Director's operator control socket.
//
// The Director listens on a local stream socket so an external operator
// tool (the ctl subcommand) can reach a running simulation. The protocol
// is line-based text: the operator writes one command per line and the
// Director replies with an acknowledgment line. Commands are not yet
// dispatched into Director operations; they are logged and echoed back.
//
// The core types are:
//
//   - [Bridge]: The listener, one goroutine per operator connection
//   - [Client]: The operator side, one connection per command
//
// # Usage
//
//	br := bridge.New(bridge.WithLogger(log))
//	if err := br.Start(ctx); err != nil {
//	    return err
//	}
//	defer br.Stop()
//
//	// Operator side:
//	reply, err := bridge.NewClient("").Send(ctx, "status")
//
// The socket carries no authentication. It lives under the invoking
// user's home directory, so filesystem permissions are the boundary.
package bridge
