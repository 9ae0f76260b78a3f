/*Package interval implements interval-union operations on sets of genomic
  coordinates loaded from BED files or region strings.
  (Note the 'union'.  Overlapping intervals are merged, not tracked
  separately.)
  It assumes every position fits in a PosType, which is defined as int32 to
  match the coordinate range of BAM and VCF files.
*/
package interval
