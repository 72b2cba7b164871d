package coordinatorsrv

// Session lifecycle, in brief:
//
//	ACCEPTED -> ack("connected") -> AWAITING_ID
//	AWAITING_ID, id=="client"       -> ack("ready_to_serve") -> SERVING_CLIENT
//	AWAITING_ID, id=="slave_server" -> register -> CLOSE
//	AWAITING_ID, anything else     -> CLOSE
//	SERVING_CLIENT: read/execute/reply in a loop until EOF -> CLOSE
//
// See session.go for the implementation.
