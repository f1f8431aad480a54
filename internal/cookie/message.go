package cookie

import (
	"encoding/hex"

	"github.com/miekg/dns"
)

// Message is the collaborator interface the client and server layers consume
// for reading/writing EDNS options and the response code (§6). Neither layer
// imports a DNS message library directly; DNSMessage below is the one
// adapter that bridges this interface to *dns.Msg.
type Message interface {
	HasOPT() bool
	GetOption(code uint16) ([]byte, bool)
	PutOption(code uint16, data []byte)
	RemoveOption(code uint16)
	Rcode() int
	SetRcode(rcode int)
	QuestionCount() int
}

// DNSMessage adapts *dns.Msg to Message.
type DNSMessage struct {
	Msg *dns.Msg
}

// NewDNSMessage wraps m for consumption by the cookie layers.
func NewDNSMessage(m *dns.Msg) DNSMessage {
	return DNSMessage{Msg: m}
}

func (d DNSMessage) opt() *dns.OPT {
	return d.Msg.IsEdns0()
}

// HasOPT reports whether the message carries an OPT pseudo-record.
func (d DNSMessage) HasOPT() bool {
	return d.opt() != nil
}

// GetOption returns the decoded bytes of the first option matching code, if
// present. dns.EDNS0_COOKIE stores its payload as a hex string internally;
// this is where that's undone.
func (d DNSMessage) GetOption(code uint16) ([]byte, bool) {
	opt := d.opt()
	if opt == nil {
		return nil, false
	}
	for _, o := range opt.Option {
		if o.Option() != code {
			continue
		}
		cc, ok := o.(*dns.EDNS0_COOKIE)
		if !ok {
			return nil, false
		}
		raw, err := hex.DecodeString(cc.Cookie)
		if err != nil {
			return nil, false
		}
		return raw, true
	}
	return nil, false
}

// PutOption replaces any existing option with the same code and appends data
// encoded as an EDNS0_COOKIE. Does nothing if the message has no OPT record
// yet, per §4.F step 4: "The OPT record must already exist; if it does not,
// do nothing."
func (d DNSMessage) PutOption(code uint16, data []byte) {
	opt := d.opt()
	if opt == nil {
		return
	}
	d.RemoveOption(code)
	opt.Option = append(opt.Option, &dns.EDNS0_COOKIE{
		Code:   code,
		Cookie: hex.EncodeToString(data),
	})
}

// RemoveOption drops any option matching code from the OPT record.
func (d DNSMessage) RemoveOption(code uint16) {
	opt := d.opt()
	if opt == nil {
		return
	}
	filtered := opt.Option[:0]
	for _, o := range opt.Option {
		if o.Option() != code {
			filtered = append(filtered, o)
		}
	}
	opt.Option = filtered
}

// Rcode returns the combined (base + extended) response code. miekg/dns
// transparently folds the OPT extended-RCODE octet into Msg.Rcode on Unpack
// and splits it back out on Pack, so no extra bit twiddling is needed here.
func (d DNSMessage) Rcode() int {
	return d.Msg.Rcode
}

// SetRcode assigns the combined response code.
func (d DNSMessage) SetRcode(rcode int) {
	d.Msg.Rcode = rcode
}

// QuestionCount returns the number of questions (qdcount).
func (d DNSMessage) QuestionCount() int {
	return len(d.Msg.Question)
}
