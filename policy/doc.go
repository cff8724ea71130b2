// Package policy provides optional declarative rules that can be applied on
// top of a running flagly engine – for example to pin selected features to a
// fixed flow during an incident or to force the fallthrough path entirely.
package policy
