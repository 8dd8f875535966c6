package supervisor

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Seintian/postoffice/internal/errors"
	"github.com/Seintian/postoffice/internal/logging"
)

// defaultReapPoll is the interval between non-blocking wait attempts while
// TerminateAll waits for a child to exit.
const defaultReapPoll = 5 * time.Millisecond

// Role identifies one supervised subsystem. The value doubles as the
// subcommand the child is re-executed with.
type Role string

const (
	// RoleBroker is the work-broker process.
	RoleBroker Role = "broker"

	// RoleWorkers is the worker-pool process.
	RoleWorkers Role = "workers"

	// RoleUsers is the users-manager process.
	RoleUsers Role = "users"

	// RoleUnknown marks a reaped child the supervisor never spawned.
	RoleUnknown Role = "unknown"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// ExitClass categorizes how a child process ended.
type ExitClass string

const (
	// ExitNormal is a zero exit code.
	ExitNormal ExitClass = "normal"

	// ExitFailure is a non-zero exit code.
	ExitFailure ExitClass = "failure"

	// ExitSignaled is termination by a signal.
	ExitSignaled ExitClass = "signaled"
)

// String returns the string representation of the exit class.
func (c ExitClass) String() string {
	return string(c)
}

// Exit describes one reaped child process.
type Exit struct {
	// Pid is the reaped process id.
	Pid int

	// Role is the subsystem the process was spawned as, or RoleUnknown
	// for a child the supervisor never tracked.
	Role Role

	// Class categorizes the exit.
	Class ExitClass

	// Code is the exit code when Class is ExitNormal or ExitFailure.
	Code int

	// Signal is the terminating signal when Class is ExitSignaled.
	Signal unix.Signal
}

// SignalName returns the terminating signal's name, or the empty string
// for a child that exited on its own.
func (e Exit) SignalName() string {
	if e.Class != ExitSignaled {
		return ""
	}
	return unix.SignalName(e.Signal)
}

// Child describes one subsystem process to spawn.
type Child struct {
	// Role identifies the subsystem; at most one child per role.
	Role Role

	// Args is the argument vector passed to the re-executed binary,
	// starting with the subcommand.
	Args []string

	// Env holds extra KEY=value entries appended to the parent's
	// environment.
	Env []string
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger for child lifecycle events and captured
// child output.
func WithLogger(l *logging.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

// WithExecutable overrides the binary children are spawned from. The
// default is the running executable.
func WithExecutable(path string) Option {
	return func(s *Supervisor) { s.exe = path }
}

// WithPollInterval sets the reap poll interval used by TerminateAll.
func WithPollInterval(d time.Duration) Option {
	return func(s *Supervisor) { s.poll = d }
}

// Supervisor spawns, tracks, and reaps the simulation's child processes.
// Exits are observed and classified only; no child is ever restarted.
type Supervisor struct {
	mu     sync.Mutex
	exe    string
	poll   time.Duration
	logger *logging.Logger
	wg     sync.WaitGroup

	pids  map[Role]int
	roles map[int]Role
	order []int
}

// New creates a Supervisor. Children are spawned by re-executing the
// current binary unless WithExecutable overrides it.
func New(opts ...Option) (*Supervisor, error) {
	s := &Supervisor{
		poll:   defaultReapPoll,
		logger: logging.NopLogger(),
		pids:   make(map[Role]int),
		roles:  make(map[int]Role),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.exe == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, errors.NewSpawnError("failed to resolve executable path", err)
		}
		s.exe = exe
	}
	return s, nil
}

// Spawn starts one child process and records its pid. A role can only be
// spawned once while its previous process is still tracked.
//
// The child's stdout and stderr are captured line by line into the
// supervisor's logger: children log to their own files, so anything on
// these streams is startup noise or a crash report.
func (s *Supervisor) Spawn(c Child) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pids[c.Role]; ok {
		return 0, errors.Wrapf(errors.ErrAlreadySpawned, "role %s", c.Role)
	}

	outR, outW, err := os.Pipe()
	if err != nil {
		return 0, errors.NewSpawnError("failed to create stdout pipe", err).WithRole(string(c.Role))
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return 0, errors.NewSpawnError("failed to create stderr pipe", err).WithRole(string(c.Role))
	}

	cmd := exec.Command(s.exe, c.Args...)
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdin = nil
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		outR.Close()
		outW.Close()
		errR.Close()
		errW.Close()
		return 0, errors.NewSpawnError("failed to start child", err).WithRole(string(c.Role))
	}

	// The child holds the write ends now; closing the parent's copies
	// lets the readers see EOF when the child exits.
	outW.Close()
	errW.Close()

	pid := cmd.Process.Pid
	// Reaping goes through wait4 below, never through cmd.Wait.
	_ = cmd.Process.Release()

	s.wg.Add(2)
	go s.forward(c.Role, "stdout", outR)
	go s.forward(c.Role, "stderr", errR)

	s.pids[c.Role] = pid
	s.roles[pid] = c.Role
	s.order = append(s.order, pid)

	s.logger.Info("child spawned", "role", c.Role, "pid", pid)
	return pid, nil
}

// Pid returns the tracked pid for a role.
func (s *Supervisor) Pid(role Role) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, ok := s.pids[role]
	return pid, ok
}

// Count returns the number of tracked children.
func (s *Supervisor) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.roles)
}

// Signal sends sig to the tracked child for role.
func (s *Supervisor) Signal(role Role, sig unix.Signal) error {
	pid, ok := s.Pid(role)
	if !ok {
		return errors.Wrapf(errors.ErrNotTracked, "role %s", role)
	}
	if err := unix.Kill(pid, sig); err != nil && err != unix.ESRCH {
		return errors.NewSpawnError("failed to signal child", err).WithRole(string(role)).WithPid(pid)
	}
	return nil
}

// CheckCrashes performs one non-blocking reap pass, collecting every child
// that has exited since the last pass. Tracked children are removed from
// the tracked set and classified; a child the supervisor never spawned is
// reported with RoleUnknown.
func (s *Supervisor) CheckCrashes() []Exit {
	var exits []Exit
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil || pid <= 0 {
			// ECHILD means no children remain; pid 0 means none has
			// exited yet.
			return exits
		}
		exits = append(exits, s.classify(pid, ws))
	}
}

// TerminateAll sends SIGTERM to every tracked child, then waits for each
// in spawn order. It returns the exits it observed; waiting is cooperative
// and stops with an error when ctx expires, leaving unreaped children
// tracked so the caller can escalate.
func (s *Supervisor) TerminateAll(ctx context.Context) ([]Exit, error) {
	s.mu.Lock()
	order := make([]int, 0, len(s.order))
	for _, pid := range s.order {
		if _, ok := s.roles[pid]; ok {
			order = append(order, pid)
		}
	}
	s.mu.Unlock()

	for _, pid := range order {
		if err := unix.Kill(pid, unix.SIGTERM); err != nil && err != unix.ESRCH {
			s.logger.Warn("termination signal failed", "pid", pid, "error", err)
		}
	}

	var exits []Exit
	for _, pid := range order {
		e, err := s.awaitExit(ctx, pid)
		if err != nil {
			return exits, err
		}
		if e != nil {
			exits = append(exits, *e)
		}
	}

	s.wg.Wait()
	return exits, nil
}

// awaitExit polls until pid is reaped or ctx expires.
func (s *Supervisor) awaitExit(ctx context.Context, pid int) (*Exit, error) {
	for {
		var ws unix.WaitStatus
		got, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.ECHILD:
			// Reaped elsewhere already; just drop the tracking entry.
			s.untrack(pid)
			return nil, nil
		case err != nil:
			return nil, errors.NewSpawnError("wait for child failed", err).WithPid(pid)
		case got == pid:
			e := s.classify(pid, ws)
			return &e, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "terminating pid %d", pid)
		case <-time.After(s.poll):
		}
	}
}

// classify removes pid from the tracked set and builds its Exit record,
// logging each classification distinctly.
func (s *Supervisor) classify(pid int, ws unix.WaitStatus) Exit {
	role, tracked := s.untrack(pid)

	e := Exit{Pid: pid, Role: role}
	if !tracked {
		e.Role = RoleUnknown
	}
	if ws.Exited() {
		e.Code = ws.ExitStatus()
		if e.Code == 0 {
			e.Class = ExitNormal
		} else {
			e.Class = ExitFailure
		}
	} else {
		e.Class = ExitSignaled
		e.Signal = ws.Signal()
	}

	switch {
	case !tracked:
		s.logger.Warn("reaped unexpected child", "pid", pid, "class", e.Class)
	case e.Class == ExitNormal:
		s.logger.Info("child exited", "role", e.Role, "pid", pid)
	case e.Class == ExitFailure:
		s.logger.Error("child exited with failure", "role", e.Role, "pid", pid, "code", e.Code)
	default:
		s.logger.Error("child terminated by signal", "role", e.Role, "pid", pid, "signal", unix.SignalName(e.Signal))
	}
	return e
}

func (s *Supervisor) untrack(pid int) (Role, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[pid]
	if ok {
		delete(s.roles, pid)
		delete(s.pids, role)
	}
	return role, ok
}

// forward drains one captured output stream into the logger.
func (s *Supervisor) forward(role Role, stream string, r *os.File) {
	defer s.wg.Done()
	defer r.Close()

	sc := bufio.NewScanner(r)
	// Panic reports can carry long frames.
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if stream == "stderr" {
			s.logger.Warn("child output", "role", role, "stream", stream, "line", line)
		} else {
			s.logger.Info("child output", "role", role, "stream", stream, "line", line)
		}
	}
}
