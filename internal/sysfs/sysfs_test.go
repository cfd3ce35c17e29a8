package sysfs

import (
	"errors"
	"testing"

	"github.com/ZZJJWarth/DragonOS/internal/kernfs"
	"github.com/ZZJJWarth/DragonOS/internal/kobject"
)

type helloAttr struct {
	support OpsSupport
}

func (helloAttr) Name() string          { return "hello" }
func (helloAttr) Mode() Mode            { return ModeRO }
func (a helloAttr) Support() OpsSupport { return a.support }

func (helloAttr) Show(_ kobject.KObject, buf []byte) (int, error) {
	return Emit(buf, "Hello Pci")
}

func (helloAttr) Store(_ kobject.KObject, _ []byte) (int, error) {
	return 0, ErrNotImplemented
}

type testGroup struct {
	name   string
	attrs  []Attribute
	hidden map[string]bool
}

func (g *testGroup) Name() string            { return g.name }
func (g *testGroup) Attributes() []Attribute { return g.attrs }

func (g *testGroup) Visible(_ kobject.KObject, attr Attribute) (Mode, bool) {
	if g.hidden[attr.Name()] {
		return 0, false
	}
	return attr.Mode(), true
}

func TestCapabilityGating(t *testing.T) {
	kobj := kobject.NewBase("dev0")
	attr := helloAttr{support: SupportShow}
	buf := make([]byte, 64)

	n, err := ShowAttribute(attr, kobj, buf)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if string(buf[:n]) != "Hello Pci" {
		t.Fatalf("show emitted %q", buf[:n])
	}

	if _, err := StoreAttribute(attr, kobj, []byte("x")); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("store on show-only attribute returned %v, want ErrUnsupported", err)
	}

	both := helloAttr{support: SupportShow | SupportStore}
	if _, err := StoreAttribute(both, kobj, []byte("x")); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("pending store path returned %v, want ErrNotImplemented", err)
	}
}

func TestEmitBufferTooSmall(t *testing.T) {
	buf := make([]byte, 4)
	if _, err := Emit(buf, "too long for four"); !errors.Is(err, ErrBufferTooSmall) {
		t.Fatalf("Emit returned %v, want ErrBufferTooSmall", err)
	}
	n, err := Emit(buf, "ok")
	if err != nil || n != 2 {
		t.Fatalf("Emit returned (%d, %v)", n, err)
	}
}

func TestCreateRemoveGroups(t *testing.T) {
	kobj := kobject.NewBase("dev0")
	group := &testGroup{
		name:   "TestAttr",
		attrs:  []Attribute{helloAttr{support: SupportShow}},
		hidden: map[string]bool{},
	}

	if err := CreateGroups(kobj, []AttributeGroup{group}); !errors.Is(err, ErrNoInode) {
		t.Fatalf("group creation without inode returned %v, want ErrNoInode", err)
	}

	kobj.SetInode(kernfs.NewInode("dev0", 0o755))
	if err := CreateGroups(kobj, []AttributeGroup{group}); err != nil {
		t.Fatalf("CreateGroups: %v", err)
	}
	dir, ok := kobj.Inode().Child("TestAttr")
	if !ok {
		t.Fatal("group directory not created")
	}
	if _, ok := dir.Child("hello"); !ok {
		t.Fatal("attribute node not created")
	}
	if !kobj.State().Has(kobject.StateInSysfs) {
		t.Fatal("InSysfs not set after group creation")
	}

	RemoveGroups(kobj, []AttributeGroup{group})
	if _, ok := kobj.Inode().Child("TestAttr"); ok {
		t.Fatal("group directory survived removal")
	}
	if kobj.State().Has(kobject.StateInSysfs) {
		t.Fatal("InSysfs still set after group removal")
	}
}

func TestPerInstanceVisibility(t *testing.T) {
	kobj := kobject.NewBase("dev0")
	kobj.SetInode(kernfs.NewInode("dev0", 0o755))
	group := &testGroup{
		attrs:  []Attribute{helloAttr{support: SupportShow}},
		hidden: map[string]bool{"hello": true},
	}

	if err := CreateGroups(kobj, []AttributeGroup{group}); err != nil {
		t.Fatalf("CreateGroups: %v", err)
	}
	if _, ok := kobj.Inode().Child("hello"); ok {
		t.Fatal("hidden attribute was materialized")
	}
}
