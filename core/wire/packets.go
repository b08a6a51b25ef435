package wire

import "fmt"

// PacketID is the stable u32 tag every packet starts with. IDs are
// assigned here once and must never be renumbered -- doing so would be
// exactly the kind of wire-incompatible change spec §6 warns about.
type PacketID uint32

const (
	IDCheckAlive PacketID = iota
	IDAck
	IDExit
	IDOk
	IDOSError
	IDInvalidField
	IDProcessRun
	IDProcessCompleted
	IDProcessError
	IDStat
	IDStatResult
	IDResolveUser
	IDResolveGroup
	IDResolveResult
	IDQueryUser
	IDQueryGroup
	IDUserEntry
	IDGroupEntry
	IDUpload
	IDDownload
	IDDownloadResult
)

// Packet is implemented by every request/response type. Encode/Decode
// handle only the fields; the packet id itself is written/read by
// WritePacket/ReadPacket.
type Packet interface {
	ID() PacketID
	Encode(w *Writer)
}

// ProtocolVersion is the wire compatibility version carried in the
// CheckAlive/Ack handshake (see SPEC_FULL.md, C1 addendum). A
// major-version mismatch aborts the connection before it is
// considered open.
const ProtocolVersion = "v1.0.0"

// --- Handshake / lifecycle ---

type CheckAlive struct{ ProtocolVersion string }

func (CheckAlive) ID() PacketID       { return IDCheckAlive }
func (p CheckAlive) Encode(w *Writer) { w.WriteStr(p.ProtocolVersion) }

type Ack struct{ ProtocolVersion string }

func (Ack) ID() PacketID       { return IDAck }
func (p Ack) Encode(w *Writer) { w.WriteStr(p.ProtocolVersion) }

type Exit struct{}

func (Exit) ID() PacketID   { return IDExit }
func (Exit) Encode(*Writer) {}

type Ok struct{}

func (Ok) ID() PacketID   { return IDOk }
func (Ok) Encode(*Writer) {}

type OSError struct {
	Errno    int64
	Strerror string
	Msg      string
}

func (OSError) ID() PacketID { return IDOSError }
func (p OSError) Encode(w *Writer) {
	w.WriteI64(p.Errno)
	w.WriteStr(p.Strerror)
	w.WriteStr(p.Msg)
}

type InvalidField struct {
	Field        string
	ErrorMessage string
}

func (InvalidField) ID() PacketID { return IDInvalidField }
func (p InvalidField) Encode(w *Writer) {
	w.WriteStr(p.Field)
	w.WriteStr(p.ErrorMessage)
}

// --- Process execution ---

type ProcessRun struct {
	Command       []string
	Stdin         []byte // optional
	CaptureOutput bool
	User          *string
	Group         *string
	Umask         *string
	Cwd           *string
}

func (ProcessRun) ID() PacketID { return IDProcessRun }
func (p ProcessRun) Encode(w *Writer) {
	w.WriteStrList(p.Command)
	w.WriteOptBytes(p.Stdin)
	w.WriteBool(p.CaptureOutput)
	w.WriteOptStr(p.User)
	w.WriteOptStr(p.Group)
	w.WriteOptStr(p.Umask)
	w.WriteOptStr(p.Cwd)
}

type ProcessCompleted struct {
	Stdout     []byte // optional
	Stderr     []byte // optional
	ReturnCode int32
}

func (ProcessCompleted) ID() PacketID { return IDProcessCompleted }
func (p ProcessCompleted) Encode(w *Writer) {
	w.WriteOptBytes(p.Stdout)
	w.WriteOptBytes(p.Stderr)
	w.WriteI32(p.ReturnCode)
}

type ProcessError struct{ Message string }

func (ProcessError) ID() PacketID       { return IDProcessError }
func (p ProcessError) Encode(w *Writer) { w.WriteStr(p.Message) }

// --- Stat ---

type Stat struct {
	Path        string
	FollowLinks bool
	Sha512Sum   bool
}

func (Stat) ID() PacketID { return IDStat }
func (p Stat) Encode(w *Writer) {
	w.WriteStr(p.Path)
	w.WriteBool(p.FollowLinks)
	w.WriteBool(p.Sha512Sum)
}

type StatResult struct {
	Type      string
	Mode      uint64
	Owner     string
	Group     string
	Size      uint64
	Mtime     uint64
	Ctime     uint64
	Sha512Sum []byte // optional
}

func (StatResult) ID() PacketID { return IDStatResult }
func (p StatResult) Encode(w *Writer) {
	w.WriteStr(p.Type)
	w.WriteU64(p.Mode)
	w.WriteStr(p.Owner)
	w.WriteStr(p.Group)
	w.WriteU64(p.Size)
	w.WriteU64(p.Mtime)
	w.WriteU64(p.Ctime)
	w.WriteOptBytes(p.Sha512Sum)
}

// --- Identity resolution ---

type ResolveUser struct{ Name *string }

func (ResolveUser) ID() PacketID       { return IDResolveUser }
func (p ResolveUser) Encode(w *Writer) { w.WriteOptStr(p.Name) }

type ResolveGroup struct{ Name *string }

func (ResolveGroup) ID() PacketID       { return IDResolveGroup }
func (p ResolveGroup) Encode(w *Writer) { w.WriteOptStr(p.Name) }

type ResolveResult struct{ Value string }

func (ResolveResult) ID() PacketID       { return IDResolveResult }
func (p ResolveResult) Encode(w *Writer) { w.WriteStr(p.Value) }

type QueryUser struct{ Name string }

func (QueryUser) ID() PacketID       { return IDQueryUser }
func (p QueryUser) Encode(w *Writer) { w.WriteStr(p.Name) }

type QueryGroup struct{ Name string }

func (QueryGroup) ID() PacketID       { return IDQueryGroup }
func (p QueryGroup) Encode(w *Writer) { w.WriteStr(p.Name) }

type UserEntry struct {
	Name                string
	UID                 uint64
	PrimaryGroupName    string
	GID                 uint64
	SupplementaryGroups []string
	PasswordHash        string
	Gecos               string
	Home                string
	Shell               string
}

func (UserEntry) ID() PacketID { return IDUserEntry }
func (p UserEntry) Encode(w *Writer) {
	w.WriteStr(p.Name)
	w.WriteU64(p.UID)
	w.WriteStr(p.PrimaryGroupName)
	w.WriteU64(p.GID)
	w.WriteStrList(p.SupplementaryGroups)
	w.WriteStr(p.PasswordHash)
	w.WriteStr(p.Gecos)
	w.WriteStr(p.Home)
	w.WriteStr(p.Shell)
}

type GroupEntry struct {
	Name    string
	GID     uint64
	Members []string
}

func (GroupEntry) ID() PacketID { return IDGroupEntry }
func (p GroupEntry) Encode(w *Writer) {
	w.WriteStr(p.Name)
	w.WriteU64(p.GID)
	w.WriteStrList(p.Members)
}

// --- File transfer ---

type Upload struct {
	Path    string
	Content []byte
	Mode    *string
	Owner   *string
	Group   *string
}

func (Upload) ID() PacketID { return IDUpload }
func (p Upload) Encode(w *Writer) {
	w.WriteStr(p.Path)
	w.WriteBytes(p.Content)
	w.WriteOptStr(p.Mode)
	w.WriteOptStr(p.Owner)
	w.WriteOptStr(p.Group)
}

type Download struct{ Path string }

func (Download) ID() PacketID       { return IDDownload }
func (p Download) Encode(w *Writer) { w.WriteStr(p.Path) }

type DownloadResult struct{ Content []byte }

func (DownloadResult) ID() PacketID       { return IDDownloadResult }
func (p DownloadResult) Encode(w *Writer) { w.WriteBytes(p.Content) }

// decode reconstructs a Packet's fields given its id, reading in the
// exact declared order Encode wrote them.
func decode(id PacketID, r *Reader) (Packet, error) {
	switch id {
	case IDCheckAlive:
		v, err := r.ReadStr()
		return CheckAlive{ProtocolVersion: v}, err
	case IDAck:
		v, err := r.ReadStr()
		return Ack{ProtocolVersion: v}, err
	case IDExit:
		return Exit{}, nil
	case IDOk:
		return Ok{}, nil
	case IDOSError:
		errno, err := r.ReadI64()
		if err != nil {
			return nil, err
		}
		strerror, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		msg, err := r.ReadStr()
		return OSError{Errno: errno, Strerror: strerror, Msg: msg}, err
	case IDInvalidField:
		field, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		msg, err := r.ReadStr()
		return InvalidField{Field: field, ErrorMessage: msg}, err
	case IDProcessRun:
		cmd, err := r.ReadStrList()
		if err != nil {
			return nil, err
		}
		stdin, err := r.ReadOptBytes()
		if err != nil {
			return nil, err
		}
		capture, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		user, err := r.ReadOptStr()
		if err != nil {
			return nil, err
		}
		group, err := r.ReadOptStr()
		if err != nil {
			return nil, err
		}
		umask, err := r.ReadOptStr()
		if err != nil {
			return nil, err
		}
		cwd, err := r.ReadOptStr()
		return ProcessRun{Command: cmd, Stdin: stdin, CaptureOutput: capture, User: user, Group: group, Umask: umask, Cwd: cwd}, err
	case IDProcessCompleted:
		stdout, err := r.ReadOptBytes()
		if err != nil {
			return nil, err
		}
		stderr, err := r.ReadOptBytes()
		if err != nil {
			return nil, err
		}
		rc, err := r.ReadI32()
		return ProcessCompleted{Stdout: stdout, Stderr: stderr, ReturnCode: rc}, err
	case IDProcessError:
		msg, err := r.ReadStr()
		return ProcessError{Message: msg}, err
	case IDStat:
		path, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		follow, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		sha, err := r.ReadBool()
		return Stat{Path: path, FollowLinks: follow, Sha512Sum: sha}, err
	case IDStatResult:
		typ, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		mode, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		owner, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		group, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		size, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		mtime, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		ctime, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		sha, err := r.ReadOptBytes()
		return StatResult{Type: typ, Mode: mode, Owner: owner, Group: group, Size: size, Mtime: mtime, Ctime: ctime, Sha512Sum: sha}, err
	case IDResolveUser:
		name, err := r.ReadOptStr()
		return ResolveUser{Name: name}, err
	case IDResolveGroup:
		name, err := r.ReadOptStr()
		return ResolveGroup{Name: name}, err
	case IDResolveResult:
		v, err := r.ReadStr()
		return ResolveResult{Value: v}, err
	case IDQueryUser:
		name, err := r.ReadStr()
		return QueryUser{Name: name}, err
	case IDQueryGroup:
		name, err := r.ReadStr()
		return QueryGroup{Name: name}, err
	case IDUserEntry:
		name, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		uid, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		pgname, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		gid, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		supp, err := r.ReadStrList()
		if err != nil {
			return nil, err
		}
		pwhash, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		gecos, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		home, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		shell, err := r.ReadStr()
		return UserEntry{Name: name, UID: uid, PrimaryGroupName: pgname, GID: gid, SupplementaryGroups: supp, PasswordHash: pwhash, Gecos: gecos, Home: home, Shell: shell}, err
	case IDGroupEntry:
		name, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		gid, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		members, err := r.ReadStrList()
		return GroupEntry{Name: name, GID: gid, Members: members}, err
	case IDUpload:
		path, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		content, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		mode, err := r.ReadOptStr()
		if err != nil {
			return nil, err
		}
		owner, err := r.ReadOptStr()
		if err != nil {
			return nil, err
		}
		group, err := r.ReadOptStr()
		return Upload{Path: path, Content: content, Mode: mode, Owner: owner, Group: group}, err
	case IDDownload:
		path, err := r.ReadStr()
		return Download{Path: path}, err
	case IDDownloadResult:
		content, err := r.ReadBytes()
		return DownloadResult{Content: content}, err
	default:
		return nil, fmt.Errorf("wire: unknown packet id %d", id)
	}
}
