// Package encoding plans and runs target-size transcodes.
//
// PlanBitrate converts a size budget and a probed duration into an average
// bitrate. Engine starts one Job per request: the job probes the source,
// plans the bitrate, runs the encoder and reports fractional progress parsed
// from the encoder's diagnostic stream on a progress.Channel. Every job ends
// with exactly one terminal event: success, failure or cancelled.
package encoding
