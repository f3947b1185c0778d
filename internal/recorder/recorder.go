// Package recorder keeps a posing session on disk: a timestamped log of
// pinch events, the final pose as binary quaternions, snapshot images and
// a JSON manifest describing the session.
package recorder

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"rig-poser/internal/config"
	"rig-poser/internal/manip"
	"rig-poser/internal/models"
	"rig-poser/internal/skeleton"
)

// File names inside a session directory.
const (
	LogFile      = "log.txt"
	PoseFile     = "pose.dat"
	ManifestFile = "manifest.json"
)

// Recorder writes one session directory. It implements manip.Notifier.
type Recorder struct {
	// Now is the clock used for log lines and the manifest.
	Now func() time.Time

	mu        sync.Mutex
	dir       string
	log       *os.File
	logw      *bufio.Writer
	manifest  Manifest
	snapshots int
}

// Manifest describes a finished session.
type Manifest struct {
	Session   string     `json:"session"`
	Model     models.ID  `json:"model"`
	Mode      string     `json:"mode"`
	Started   time.Time  `json:"started"`
	Ended     time.Time  `json:"ended"`
	Pinches   []PinchLog `json:"pinches"`
	Pose      string     `json:"pose,omitempty"`
	Bones     []string   `json:"bones,omitempty"`
	Snapshots []string   `json:"snapshots"`
}

// PinchLog is one pinch session in the manifest.
type PinchLog struct {
	Handle     string     `json:"handle"`
	Bone       int        `json:"bone"`
	HandleBone int        `json:"handle_bone"`
	Start      time.Time  `json:"start"`
	End        *time.Time `json:"end,omitempty"`
	From       [3]float64 `json:"from"`
	To         [3]float64 `json:"to"`
}

// DirName returns the session directory name for a start time:
// rec_MMDD-HHMM_<model>_<mode>.
func DirName(now time.Time, model models.ID, mode config.Mode) string {
	return fmt.Sprintf("rec_%s_%s_%s", now.Format("0102-1504"), model, mode)
}

// New creates the session directory under root and opens its log.
// A directory that already exists gets a numeric suffix.
func New(root string, model models.ID, mode config.Mode, now time.Time) (*Recorder, error) {
	base := filepath.Join(root, DirName(now, model, mode))
	dir := base
	for n := 2; ; n++ {
		err := os.Mkdir(dir, 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) || n > 100 {
			return nil, errors.Wrapf(err, "recorder: create %s", dir)
		}
		dir = fmt.Sprintf("%s_%d", base, n)
	}

	f, err := os.Create(filepath.Join(dir, LogFile))
	if err != nil {
		return nil, errors.Wrap(err, "recorder: open log")
	}

	r := &Recorder{
		Now:  time.Now,
		dir:  dir,
		log:  f,
		logw: bufio.NewWriter(f),
		manifest: Manifest{
			Session:   uuid.New().String(),
			Model:     model,
			Mode:      string(mode),
			Started:   now,
			Snapshots: []string{},
		},
	}
	r.logAt(now, "session %s: model %s, mode %s", r.manifest.Session, model, mode)
	return r, nil
}

// Dir returns the session directory.
func (r *Recorder) Dir() string { return r.dir }

// Session returns the session id.
func (r *Recorder) Session() string { return r.manifest.Session }

// Logf appends a timestamped line to log.txt.
func (r *Recorder) Logf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logf(format, args...)
}

func (r *Recorder) logf(format string, args ...interface{}) {
	r.logAt(r.Now(), format, args...)
}

func (r *Recorder) logAt(t time.Time, format string, args ...interface{}) {
	fmt.Fprintf(r.logw, "%s  %s\n", t.Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))
}

func (r *Recorder) PinchStarted(ev manip.PinchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logf("pinch start %s bone=%d handle_bone=%d at %.2f %.2f %.2f", ev.Name, ev.Bone, ev.HandleBone, ev.Sample[0], ev.Sample[1], ev.Sample[2])
	r.manifest.Pinches = append(r.manifest.Pinches, PinchLog{
		Handle:     ev.Name,
		Bone:       ev.Bone,
		HandleBone: ev.HandleBone,
		Start:      ev.Time,
		From:       ev.Sample,
	})
}

func (r *Recorder) PinchEnded(ev manip.PinchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logf("pinch end %s bone=%d handle_bone=%d at %.2f %.2f %.2f", ev.Name, ev.Bone, ev.HandleBone, ev.Sample[0], ev.Sample[1], ev.Sample[2])
	for i := len(r.manifest.Pinches) - 1; i >= 0; i-- {
		p := &r.manifest.Pinches[i]
		if p.End == nil && p.Bone == ev.Bone {
			t := ev.Time
			p.End, p.To = &t, ev.Sample
			return
		}
	}
}

// WritePose writes every bone's local rotation to pose.dat as four
// little-endian float32 values x, y, z, w, in bone id order.
func (r *Recorder) WritePose(skel *skeleton.Skeleton) error {
	f, err := os.Create(filepath.Join(r.dir, PoseFile))
	if err != nil {
		return errors.Wrap(err, "recorder: create pose")
	}
	defer f.Close()

	if err := EncodePose(f, skel); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifest.Pose = PoseFile
	r.manifest.Bones = r.manifest.Bones[:0]
	for _, b := range skel.Bones {
		r.manifest.Bones = append(r.manifest.Bones, b.Name)
	}
	r.logf("pose written: %d bones", skel.Len())
	return nil
}

// EncodePose writes the pose.dat encoding of skel to w.
func EncodePose(w io.Writer, skel *skeleton.Skeleton) error {
	buf := make([]byte, 0, skel.Len()*16)
	for _, b := range skel.Bones {
		q := b.Rotation
		for _, v := range [4]float64{q.V[0], q.V[1], q.V[2], q.W} {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v)))
		}
	}
	_, err := w.Write(buf)
	return errors.Wrap(err, "recorder: write pose")
}

// ReadPose decodes a pose.dat file.
func ReadPose(path string) ([]mgl64.Quat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "recorder: read %s", path)
	}
	if len(data)%16 != 0 {
		return nil, errors.Errorf("recorder: %s: size %d is not a multiple of 16", path, len(data))
	}
	out := make([]mgl64.Quat, len(data)/16)
	for i := range out {
		var v [4]float64
		for k := range v {
			v[k] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*16+k*4:])))
		}
		out[i] = mgl64.Quat{W: v[3], V: mgl64.Vec3{v[0], v[1], v[2]}}
	}
	return out, nil
}

// WriteSnapshot saves img under name in the session directory. The
// extension picks the encoder: .webp, .tga or .png.
func (r *Recorder) WriteSnapshot(name string, img image.Image) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".webp", ".tga", ".png":
	default:
		return "", errors.Errorf("recorder: unsupported snapshot format %q", ext)
	}

	path := filepath.Join(r.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "recorder: create snapshot")
	}
	defer f.Close()

	switch ext {
	case ".webp":
		err = nativewebp.Encode(f, img, nil)
	case ".tga":
		err = tga.Encode(f, img)
	case ".png":
		err = png.Encode(f, img)
	}
	if err != nil {
		return "", errors.Wrapf(err, "recorder: encode %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots++
	r.manifest.Snapshots = append(r.manifest.Snapshots, name)
	r.logf("snapshot %s", name)
	return path, nil
}

// NextSnapshotName returns snapshot_NNN.<ext> for the next snapshot.
func (r *Recorder) NextSnapshotName(ext string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("snapshot_%03d.%s", r.snapshots+1, strings.TrimPrefix(ext, "."))
}

// Manifest returns a copy of the manifest collected so far.
func (r *Recorder) Manifest() Manifest {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.manifest
	m.Pinches = append([]PinchLog(nil), m.Pinches...)
	m.Snapshots = append([]string(nil), m.Snapshots...)
	return m
}

// Close writes manifest.json and closes the log.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.manifest.Ended = r.Now()
	r.logf("session end: %d pinches, %d snapshots", len(r.manifest.Pinches), len(r.manifest.Snapshots))

	data, err := json.MarshalIndent(r.manifest, "", "  ")
	if err != nil {
		return errors.Wrap(err, "recorder: manifest")
	}
	if err := os.WriteFile(filepath.Join(r.dir, ManifestFile), data, 0644); err != nil {
		return errors.Wrap(err, "recorder: write manifest")
	}
	if err := r.logw.Flush(); err != nil {
		return errors.Wrap(err, "recorder: flush log")
	}
	return errors.Wrap(r.log.Close(), "recorder: close log")
}

// ReadManifest loads a session manifest.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return m, errors.Wrap(err, "recorder: read manifest")
	}
	return m, errors.Wrap(json.Unmarshal(data, &m), "recorder: parse manifest")
}
