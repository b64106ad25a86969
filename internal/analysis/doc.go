// Package analysis looks at recorded cycle series in the frequency domain.
//
// A heading controller that is tuned too hot rings around its target; the
// ringing shows up as a peak in the power spectrum of the heading error:
//
//	hz, _ := analysis.DominantFrequency(errs, 0.02)
//	if hz > 0 {
//	    // oscillating with period 1/hz
//	}
package analysis
