package sfs

// Option configures geometry or behavior at image-creation time, following
// the functional-options pattern.
type Option func(*createConfig) error

type createConfig struct {
	blockCount  int
	inodeBlocks int
}

// WithBlockCount overrides the total number of BlockSize blocks in a
// freshly created image (default: image.DefaultDiskSize / image.BlockSize).
func WithBlockCount(n int) Option {
	return func(c *createConfig) error {
		c.blockCount = n
		return nil
	}
}

// WithInodeBlocks overrides how many blocks are reserved for the inode
// table (default: image.DefaultInodeBlocks).
func WithInodeBlocks(n int) Option {
	return func(c *createConfig) error {
		c.inodeBlocks = n
		return nil
	}
}
