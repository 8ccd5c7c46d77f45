// Package batch defines the inbound request envelope and outbound result
// document exchanged over the message queues, plus the parsing rules that
// tolerate the envelope shapes upstream producers emit.
package batch
