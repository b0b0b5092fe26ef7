// Package metadata inspects downloaded images for EXIF tags that reveal
// where, with what device, or by whom a picture was taken.
//
// Only saved files ending in .jpg, .jpeg, .tif or .tiff are read. Files
// without EXIF data produce no findings and no error.
package metadata
