package wire

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// WritePacket writes a packet's id tag followed by its encoded fields,
// then surfaces any error the Writer accumulated. Callers own the
// Writer (one per connection, reused across calls) rather than handing
// in a raw io.Writer each time.
func WritePacket(w *Writer, p Packet) error {
	w.WriteU32(uint32(p.ID()))
	p.Encode(w)
	return w.Err()
}

// ReadPacket reads one packet id tag and decodes the matching struct.
func ReadPacket(r *Reader) (Packet, error) {
	id, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	return decode(PacketID(id), r)
}

// majorOf normalizes a bare "vX.Y.Z" version into semver's "vX" major
// component, since only a major mismatch breaks wire compatibility.
func majorOf(v string) string {
	return semver.Major(v)
}

// NegotiateVersion checks a peer's advertised protocol_version against
// ours. Only a major-version mismatch is fatal: minor/patch additions
// to the wire format must stay backward compatible within a major
// line (spec C1 addendum).
func NegotiateVersion(peer string) error {
	if !semver.IsValid(peer) {
		return fmt.Errorf("wire: malformed protocol_version %q", peer)
	}
	if majorOf(peer) != majorOf(ProtocolVersion) {
		return fmt.Errorf("wire: incompatible protocol version: local %s, peer %s", ProtocolVersion, peer)
	}
	return nil
}
