// Package confirm is the per-wallet request confirmation state machine.
//
//	Idle --HandleIncomingRequest--> AwaitingConfirmation
//	AwaitingConfirmation --Cancel--> Idle (code 300 sent)
//	AwaitingConfirmation --HandleIncomingRequest--> AwaitingConfirmation (old request declined)
//	AwaitingConfirmation --Confirm, submit ok--> Confirmed --response posted--> Idle
//
// Every operation holds the machine's operation lock for its whole duration,
// so a confirmation that reached the chain finishes before another request
// is accepted. Emulation (build + fee estimate) runs in the background and
// only annotates the pending request. Observers learn about each step
// through a notify.Hub.
package confirm
