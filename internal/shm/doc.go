// Package shm provides the fixed shared-memory block every simulation
// process maps, plus the atomic accessors that make cross-process reads
// and writes safe.
//
// The block is a single flat struct backed by a file under /dev/shm and
// mapped with MAP_SHARED, so a store in one process is a load in every
// other. It carries the simulated clock, the global ticket sequence,
// the day rendezvous counters, one status slot per worker seat, and one
// queue entry per service. All shared fields are touched only through
// sync/atomic or under a per-queue spinlock word, and every
// concurrently-written entry is padded to a cache line.
//
// The core types are [Region], which owns the mapping lifecycle, and
// [Block], the mapped struct itself. The director creates the region
// and holds an exclusive flock on the backing file for the life of the
// run, which doubles as the single-instance guard; child processes
// attach to the same file by name.
//
// Usage:
//
//	region, err := shm.Create("postoffice")
//	if err != nil {
//	    return err
//	}
//	defer region.Close()
//
//	block := region.Block()
//	block.SetClock(clock.StartOfDay(1))
//	ticket := block.NextTicket()
//
// Blocking is cooperative: there are no futexes or condition variables.
// Waiters poll a wake generation ([QueueSlot.ArrivalGen],
// [QueueSlot.CompletionGen]) with a short sleep and re-check state when
// it advances, and every loop exits when [Block.Stopped] reports true.
package shm
