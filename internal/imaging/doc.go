// Package imaging provides the pixel-level stages of the rover perception
// pipeline: perspective rectification, color classification and binary masks.
//
// All operations work with standard Go image.Image values and produce Mask
// values of the same dimensions. The coordinate system has (0,0) at the
// top-left corner, X increasing rightward and Y increasing downward.
//
// # Masks
//
// A Mask holds only 0 and 1. Combining masks is done by multiplication
// (Mask.Mul, Product), so a combined cell is 1 only when every factor is 1.
// Combining masks of different shapes is an error rather than a broadcast.
//
// # Classification
//
// ThresholdClassifier compares all three RGB channels against per-channel
// thresholds with a single strict Comparator. RegionDetector converts pixels to
// the 8-bit HSV space (H 0-179, S and V 0-255) and tests an inclusive range.
// Both validate their configuration at construction; classification itself
// cannot fail.
//
// # Rectification
//
// PerspectiveWarper solves a fixed homography from four point correspondences
// and resamples each frame onto an overhead view. Alongside the rectified image
// it returns a validity mask marking which output pixels came from captured
// content. Downstream field-of-view masks are expressed relative to that mask.
//
// # Diagnostics
//
// LoadFrame and SaveImage read and write frames on disk. DrawGrid and
// MarkPoint annotate rendered maps and overlays for inspection.
//
// # Thread Safety
//
// Classifiers and warpers are immutable after construction and may be shared.
// Masks are plain values; callers synchronize mutation.
package imaging
