// Package xkernel is the concurrency core of a microkernel: a FIFO scheduler
// with per-core idle fallback, synchronous message passing with tagged
// request/response pairing, counting semaphores, and parent/child wait/reap.
//
// Processes are model.Program values stepped each time they are scheduled.
// Blocking syscalls park the caller and return model.ErrBlocked; the program
// returns from Step and re-issues the same call once resumed:
//
//	srv, _ := xkernel.New(xkernel.WithCores(2))
//	pid, _ := srv.Spawn(ctx, "echo", model.ProgramFunc(func(sys model.Syscalls) {
//		buf := make([]byte, 64)
//		status, err := sys.Recv(model.AnyPid, model.AnyTag, buf)
//		if err != nil {
//			return
//		}
//		_, _ = sys.Send(status.Sender, status.Tag, buf[:status.Copied])
//	}))
//	_ = srv.Start(ctx)
//	defer srv.Shutdown()
//
// Services are composed from the sub-packages under service/ and can be
// exercised individually.
package xkernel
